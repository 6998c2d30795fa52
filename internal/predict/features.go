package predict

// Input is the raw prediction request.
type Input struct {
	Age        int     `json:"age" binding:"required,gt=0"`
	Weight     float64 `json:"weight" binding:"required,gt=0"`
	Height     float64 `json:"height" binding:"required,gt=0"`
	IncomeLPA  float64 `json:"income_lpa" binding:"required,gt=0"`
	Smoker     *bool   `json:"smoker" binding:"required"`
	City       *string `json:"city"`
	Occupation *string `json:"occupation"`
}

// Features is the engineered row the model scores.
type Features struct {
	BMI           float64 `json:"bmi"`
	AgeGroup      string  `json:"age_group"`
	LifestyleRisk string  `json:"lifestyle_risk"`
	IncomeLPA     float64 `json:"income_lpa"`
	City          string  `json:"city"`
	Occupation    string  `json:"occupation"`
}

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

func Derive(in Input) Features {
	bmi := 0.0
	if in.Height > 0 {
		bmi = in.Weight / (in.Height * in.Height)
	}

	smoker := in.Smoker != nil && *in.Smoker

	risk := RiskLow
	switch {
	case smoker && bmi > 30:
		risk = RiskHigh
	case smoker || bmi > 27:
		risk = RiskMedium
	}

	// the trained models use these exact buckets
	ageGroup := "senior"
	switch {
	case in.Age < 25:
		ageGroup = "adult"
	case in.Age < 60:
		ageGroup = "middle_aged"
	}

	return Features{
		BMI:           bmi,
		AgeGroup:      ageGroup,
		LifestyleRisk: risk,
		IncomeLPA:     in.IncomeLPA,
		City:          deref(in.City),
		Occupation:    deref(in.Occupation),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
