package core

// Category is a Plaid-style primary spending category. The set is
// extensible: unrecognized names are carried through as-is and render with
// the default color rather than failing a map lookup.
type Category string

const (
	GeneralServices        Category = "GENERAL_SERVICES"
	RentAndUtilities       Category = "RENT_AND_UTILITIES"
	LoanPayments           Category = "LOAN_PAYMENTS"
	GeneralMerchandise     Category = "GENERAL_MERCHANDISE"
	FoodAndDrink           Category = "FOOD_AND_DRINK"
	Transportation         Category = "TRANSPORTATION"
	Entertainment          Category = "ENTERTAINMENT"
	TransferOut            Category = "TRANSFER_OUT"
	PersonalCare           Category = "PERSONAL_CARE"
	Medical                Category = "MEDICAL"
	BankFees               Category = "BANK_FEES"
	GovernmentAndNonProfit Category = "GOVERNMENT_AND_NON_PROFIT"
	HomeImprovement        Category = "HOME_IMPROVEMENT"

	// CategoryTotal is the synthetic envelope covering all spending.
	CategoryTotal Category = "Total"
)

const defaultColor = "lightgray"

var categoryColors = map[Category]string{
	GeneralServices:        "lightgreen",
	RentAndUtilities:       "plum",
	LoanPayments:           "lightblue",
	GeneralMerchandise:     "lightblue",
	FoodAndDrink:           "orange",
	Transportation:         "lightcoral",
	Entertainment:          "gold",
	TransferOut:            "pink",
	PersonalCare:           "lightpink",
	Medical:                "hotpink",
	BankFees:               "lightgray",
	GovernmentAndNonProfit: "lightcyan",
	HomeImprovement:        "lightsalmon",
}

// Color returns the display color for the category, falling back to a
// default for names outside the known set.
func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return defaultColor
}

// KnownCategories returns the known category names in a stable order.
func KnownCategories() []Category {
	return []Category{
		BankFees,
		Entertainment,
		FoodAndDrink,
		GeneralMerchandise,
		GeneralServices,
		GovernmentAndNonProfit,
		HomeImprovement,
		LoanPayments,
		Medical,
		PersonalCare,
		RentAndUtilities,
		Transportation,
		TransferOut,
	}
}
