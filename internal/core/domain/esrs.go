package domain

// DerivedIndicator is one row of the ESRS report built from extracted
// indicators.
type DerivedIndicator struct {
	Code          string   `json:"indicator_code"`
	IndicatorName string   `json:"indicator_name"`
	Value         *float64 `json:"value"`
	Unit          *string  `json:"unit"`
	Confidence    float64  `json:"confidence"`
	Page          *PageRef `json:"source_page"`
	SourceSection *string  `json:"source_section"`
	Notes         *string  `json:"notes"`
}

// ESRSOrder is the row order of the exported ESRS table.
var ESRSOrder = []string{
	"Scope1_Emissions",
	"Scope2_Emissions",
	"Scope3_Emissions",
	"GHG_Emissions_Intensity",
	"Total_Energy",
	"Renewable_Energy_Percentage",
	"NetZero_Target_Year",
	"Green_Financing_Volume",

	"Total_Employees",
	"Female_Employees_Percentage",
	"Gender_Pay_Gap",
	"Training_Hours_Per_Employee",
	"Employee_Turnover_Rate",
	"Work_Accidents",
	"Employees_CBA_Covered",

	"Board_Female_Representation",
	"Board_Meetings",
	"Corruption_Incidents",
	"Avg_Payment_Period_To_Suppliers",
	"Suppliers_Screened_ESG_Percentage",
}

// CalculateESRS derives the ESRS table. Each derived row inherits page,
// confidence, section and notes from its base indicator; ratio rows replace
// value and unit.
func CalculateESRS(report ExtractionReport) []DerivedIndicator {
	item := func(key string) IndicatorResult {
		res, _ := report.Get(key)
		return res
	}
	val := func(key string) *float64 { return item(key).Value }

	scope1, scope2, scope3 := val("Scope1_Emissions"), val("Scope2_Emissions"), val("Scope3_Emissions")
	totalGHG := sumPresent(scope1, scope2, scope3)

	var payGap *float64
	male, female := val("Avg_Salary_Male"), val("Avg_Salary_Female")
	if male != nil && female != nil {
		diff := *male - *female
		payGap = scaled(safeDivide(&diff, male), 100)
	}

	rows := map[string]DerivedIndicator{
		"Scope1_Emissions":            same(item("Scope1_Emissions"), "Total Scope 1 GHG Emissions"),
		"Scope2_Emissions":            same(item("Scope2_Emissions"), "Total Scope 2 GHG Emissions"),
		"Scope3_Emissions":            same(item("Scope3_Emissions"), "Total Scope 3 GHG Emissions"),
		"GHG_Emissions_Intensity":     derived(item("Revenue_EUR"), "GHG Emissions Intensity", safeDivide(totalGHG, val("Revenue_EUR")), "tCO2e per €M revenue"),
		"Total_Energy":                same(item("Total_Energy"), "Total Energy Consumption"),
		"Renewable_Energy_Percentage": derived(item("Renewable_Energy"), "Renewable Energy Percentage", scaled(safeDivide(val("Renewable_Energy"), val("Total_Energy")), 100), "%"),
		"NetZero_Target_Year":         same(item("NetZero_Target_Year"), "Net Zero Target Year"),
		"Green_Financing_Volume":      same(item("Green_Financing_Volume"), "Green Financing Volume"),

		"Total_Employees":             same(item("Total_Employees"), "Total Employees"),
		"Female_Employees_Percentage": derived(item("Female_Employees"), "Female Employees %", scaled(safeDivide(val("Female_Employees"), val("Total_Employees")), 100), "%"),
		"Gender_Pay_Gap":              derived(item("Avg_Salary_Female"), "Gender Pay Gap %", payGap, "%"),
		"Training_Hours_Per_Employee": keepUnit(item("Total_Training_Hours"), "Training Hours per Employee", safeDivide(val("Total_Training_Hours"), val("Total_Employees"))),
		"Employee_Turnover_Rate":      derived(item("Employees_Left"), "Employee Turnover Rate %", scaled(safeDivide(val("Employees_Left"), val("Average_Employees")), 100), "%"),
		"Work_Accidents":              same(item("Work_Accidents"), "Work-Related Accidents"),
		"Employees_CBA_Covered":       derived(item("Employees_CBA_Covered"), "Collective Bargaining Coverage %", scaled(safeDivide(val("Employees_CBA_Covered"), val("Total_Employees")), 100), "%"),

		"Board_Female_Representation":       derived(item("Female_Board_Members"), "Board Female Representation %", scaled(safeDivide(val("Female_Board_Members"), val("Total_Board_Members")), 100), "%"),
		"Board_Meetings":                    same(item("Board_Meetings"), "Board Meetings"),
		"Corruption_Incidents":              same(item("Corruption_Incidents"), "Corruption Incidents"),
		"Avg_Payment_Period_To_Suppliers":   derived(item("Trade_Payables"), "Avg Payment Period to Suppliers", scaled(safeDivide(val("Trade_Payables"), val("Purchases_From_Suppliers")), 365), "days"),
		"Suppliers_Screened_ESG_Percentage": derived(item("Suppliers_Screened_ESG"), "Suppliers Screened for ESG %", scaled(safeDivide(val("Suppliers_Screened_ESG"), val("Total_Suppliers")), 100), "%"),
	}

	out := make([]DerivedIndicator, 0, len(ESRSOrder))
	for _, code := range ESRSOrder {
		row := rows[code]
		row.Code = code
		out = append(out, row)
	}
	return out
}

func same(base IndicatorResult, name string) DerivedIndicator {
	return keepUnit(base, name, base.Value)
}

func keepUnit(base IndicatorResult, name string, value *float64) DerivedIndicator {
	return DerivedIndicator{
		IndicatorName: name,
		Value:         value,
		Unit:          base.Unit,
		Confidence:    base.Confidence,
		Page:          base.Page,
		SourceSection: base.SourceSection,
		Notes:         base.Notes,
	}
}

func derived(base IndicatorResult, name string, value *float64, unit string) DerivedIndicator {
	row := keepUnit(base, name, value)
	row.Unit = &unit
	return row
}

func safeDivide(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil || *denominator == 0 {
		return nil
	}
	v := *numerator / *denominator
	return &v
}

func scaled(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v * factor
	return &out
}

func sumPresent(values ...*float64) *float64 {
	var total float64
	found := false
	for _, v := range values {
		if v == nil {
			continue
		}
		total += *v
		found = true
	}
	if !found {
		return nil
	}
	return &total
}
