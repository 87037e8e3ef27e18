package compliance

// Demo returns the fixed demonstration analysis used when the classifier is
// not configured or cannot be reached. Each call returns fresh slices.
func Demo() Analysis {
	return Analysis{
		Status:     StatusFail,
		Confidence: 0.82,
		Citations: []string{
			"Section 150.0(k) - Minimum insulation requirements for HVAC ducts in unconditioned spaces",
			"Section 150.1(c)7 - Mandatory requirements for indoor air quality and mechanical ventilation",
			"Section 150.2(b)1 - Duct leakage testing requirements for altered duct systems",
			"Section 110.2(a) - Equipment efficiency requirements for space-conditioning systems",
			"Table 150.1-A - Prescriptive envelope criteria for climate zones 3-16",
		},
		Reasoning: "Based on the uploaded document, several potential Title 24 compliance issues were identified. " +
			"The HVAC system layout indicates ductwork routed through unconditioned attic space without documentation of R-8 minimum insulation. " +
			"The mechanical ventilation specification does not clearly indicate compliance with ASHRAE 62.2 requirements as mandated by Section 150.1(c)7. " +
			"Additionally, the equipment schedule references a 14 SEER unit where the 2025 code now requires minimum 15 SEER for split systems in this climate zone. " +
			"The duct layout does not reference a duct leakage testing protocol as required for permit compliance under Section 150.2(b)1.",
		Fixes: []string{
			"Specify R-8 minimum duct insulation for all supply and return ducts in unconditioned spaces per Section 150.0(k)",
			"Add ASHRAE 62.2 mechanical ventilation calculations and specify compliant whole-house ventilation fan with documentation",
			"Upgrade HVAC unit specification to minimum 15 SEER / 7.5 HSPF split system to meet 2025 equipment efficiency requirements",
			"Include duct leakage testing protocol on plans — maximum 5% leakage for new ductwork, 15% for existing altered systems",
			"Add climate zone designation to title block and reference applicable Table 150.1-A prescriptive values",
		},
	}
}
