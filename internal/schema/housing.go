package schema

// HousingFieldSpecs lists the commonly analysed columns of the Ames housing
// training set. Only the identity, price, lot, age and bedroom columns are
// required; the rest document their expected type.
var HousingFieldSpecs = []FieldSpec{
	{Name: "Id", Type: FieldNumeric, Required: true, AllowEmpty: false},
	{Name: "MSSubClass", Type: FieldNumeric, Required: false, AllowEmpty: false},
	{Name: "MSZoning", Type: FieldText, Required: false, AllowEmpty: false},
	{Name: "LotFrontage", Type: FieldNumeric, Required: false, AllowEmpty: true},
	{Name: "LotArea", Type: FieldNumeric, Required: true, AllowEmpty: false},
	{Name: "Street", Type: FieldText, Required: false, AllowEmpty: false},
	{Name: "Alley", Type: FieldText, Required: false, AllowEmpty: true},
	{Name: "Neighborhood", Type: FieldText, Required: false, AllowEmpty: false},
	{Name: "BldgType", Type: FieldText, Required: false, AllowEmpty: false},
	{Name: "HouseStyle", Type: FieldText, Required: false, AllowEmpty: false},
	{Name: "OverallQual", Type: FieldNumeric, Required: false, AllowEmpty: false},
	{Name: "OverallCond", Type: FieldNumeric, Required: false, AllowEmpty: false},
	{Name: "YearBuilt", Type: FieldNumeric, Required: true, AllowEmpty: false},
	{Name: "YearRemodAdd", Type: FieldNumeric, Required: false, AllowEmpty: false},
	{Name: "MasVnrArea", Type: FieldNumeric, Required: false, AllowEmpty: true},
	{Name: "TotalBsmtSF", Type: FieldNumeric, Required: false, AllowEmpty: false},
	{Name: "1stFlrSF", Type: FieldNumeric, Required: false, AllowEmpty: false},
	{Name: "2ndFlrSF", Type: FieldNumeric, Required: false, AllowEmpty: false},
	{Name: "GrLivArea", Type: FieldNumeric, Required: false, AllowEmpty: false},
	{Name: "FullBath", Type: FieldNumeric, Required: false, AllowEmpty: false},
	{Name: "BedroomAbvGr", Type: FieldNumeric, Required: true, AllowEmpty: false},
	{Name: "KitchenQual", Type: FieldText, Required: false, AllowEmpty: false},
	{Name: "TotRmsAbvGrd", Type: FieldNumeric, Required: false, AllowEmpty: false},
	{Name: "GarageYrBlt", Type: FieldNumeric, Required: false, AllowEmpty: true},
	{Name: "GarageCars", Type: FieldNumeric, Required: false, AllowEmpty: false},
	{Name: "PoolQC", Type: FieldText, Required: false, AllowEmpty: true},
	{Name: "YrSold", Type: FieldNumeric, Required: false, AllowEmpty: false},
	{Name: "SaleCondition", Type: FieldText, Required: false, AllowEmpty: false},
	{Name: "SalePrice", Type: FieldNumeric, Required: true, AllowEmpty: false},
}

// HousingRequiredColumns returns the raw header names every housing
// dataset must carry.
func HousingRequiredColumns() []string {
	return Required(HousingFieldSpecs)
}
