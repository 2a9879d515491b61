package taxonomy

// SystemAreaLabel is the folder name of the reserved system area.
const SystemAreaLabel = "00-09 System"

// IndexCategoryLabel is the folder holding the persisted taxonomy document.
const IndexCategoryLabel = "00 Index"

// UncategorizedLabel is the fallback category for documents whose
// classification names no known area or category.
const UncategorizedLabel = "09 Uncategorized"

// UncategorizedNumber is the category number of the fallback bucket.
const UncategorizedNumber = 9

// Defaults returns the built-in taxonomy. It is the lowest-precedence merge
// layer; a persisted document or filesystem folders override any slot.
func Defaults() Taxonomy {
	return Taxonomy{Areas: []Area{
		{
			Lo: 0, Hi: 9, Name: "System",
			Categories: []Category{
				{Number: 0, Name: "Index"},
				{Number: 9, Name: "Uncategorized"},
			},
		},
		{
			Lo: 10, Hi: 19, Name: "Finance",
			Categories: []Category{
				{Number: 11, Name: "Banking", Keywords: []string{"bank", "statement", "account", "iban", "transfer"}},
				{Number: 12, Name: "Taxes", Keywords: []string{"tax", "steuer", "finanzamt", "vat", "income"}},
				{Number: 13, Name: "Insurance", Keywords: []string{"insurance", "versicherung", "policy", "premium", "coverage"}},
				{Number: 14, Name: "Receipts", Keywords: []string{"receipt", "invoice", "rechnung", "order", "payment", "total"}},
				{Number: 15, Name: "Contracts", Keywords: []string{"contract", "vertrag", "agreement", "terms", "subscription"}},
			},
		},
		{
			Lo: 20, Hi: 29, Name: "Medical",
			Categories: []Category{
				{Number: 21, Name: "Records", Keywords: []string{"doctor", "hospital", "diagnosis", "arzt", "befund", "medical"}},
				{Number: 22, Name: "Prescriptions", Keywords: []string{"prescription", "rezept", "pharmacy", "medication", "apotheke"}},
			},
		},
		{
			Lo: 30, Hi: 39, Name: "Legal",
			Categories: []Category{
				{Number: 31, Name: "Contracts", Keywords: []string{"legal", "contract", "notary", "court", "attorney"}},
				{Number: 32, Name: "Correspondence", Keywords: []string{"lawyer", "kanzlei", "claim", "dispute", "legal notice"}},
			},
		},
		{
			Lo: 40, Hi: 49, Name: "Personal",
			Categories: []Category{
				{Number: 41, Name: "Identification", Keywords: []string{"passport", "ausweis", "id card", "license", "visa"}},
				{Number: 42, Name: "Certificates", Keywords: []string{"certificate", "urkunde", "diploma", "birth", "marriage"}},
			},
		},
		{
			Lo: 50, Hi: 59, Name: "Work",
			Categories: []Category{
				{Number: 51, Name: "Employment", Keywords: []string{"employment", "salary", "payslip", "arbeitsvertrag", "gehalt"}},
				{Number: 52, Name: "Projects", Keywords: []string{"project", "proposal", "specification", "meeting", "report"}},
			},
		},
	}}
}
