package dto

// MonthlyFeeRequest sets the institute-wide monthly fee.
type MonthlyFeeRequest struct {
	Fee int `json:"fee" validate:"required,gt=0"`
}

// MonthlyFeeResponse reports the fee now in force.
type MonthlyFeeResponse struct {
	MonthlyFee int `json:"monthly_fee"`
}
