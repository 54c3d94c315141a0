package audit

// FieldKey identifies one rubric field.
type FieldKey string

// Shared rubric fields, audited for both roles.
const (
	FieldProductName    FieldKey = "productName"
	FieldPartNumber     FieldKey = "partNumber"
	FieldImages         FieldKey = "images"
	FieldDescription    FieldKey = "description"
	FieldSpecifications FieldKey = "specifications"
	FieldDimensions     FieldKey = "dimensions"
	FieldDocuments      FieldKey = "documents"
	FieldVideos         FieldKey = "videos"
	FieldCategories     FieldKey = "categories"
	FieldKeywords       FieldKey = "keywords"
	FieldCrossRef       FieldKey = "crossRef"
	FieldCompliance     FieldKey = "compliance"
	FieldRelatedParts   FieldKey = "relatedParts"
)

// Distributor-only rubric fields. The manufacturer role is never scored on
// these.
const (
	FieldPrice        FieldKey = "price"
	FieldAvailability FieldKey = "availability"
)

// FieldDef pairs a field key with its human-readable label.
type FieldDef struct {
	Key   FieldKey
	Label string
}

// SharedFields is the rubric common to both roles, in presentation order.
var SharedFields = []FieldDef{
	{FieldProductName, "Product Name / Title"},
	{FieldPartNumber, "Part Number / SKU"},
	{FieldImages, "Images (count)"},
	{FieldDescription, "Product Description"},
	{FieldSpecifications, "Technical Specifications"},
	{FieldDimensions, "Dimensions / Weight"},
	{FieldDocuments, "Datasheets / Docs"},
	{FieldVideos, "Videos"},
	{FieldCategories, "Category / Breadcrumb"},
	{FieldKeywords, "SEO / Keywords / Meta"},
	{FieldCrossRef, "Cross References / Alternates"},
	{FieldCompliance, "Compliance / Certifications"},
	{FieldRelatedParts, "Related / Accessory Parts"},
}

// DistributorOnlyFields extends the rubric for distributor pages.
var DistributorOnlyFields = []FieldDef{
	{FieldPrice, "Price / Pricing Tier"},
	{FieldAvailability, "Availability / Lead Time"},
}

// FieldsForRole returns the rubric for a role: 13 shared fields for the
// manufacturer, 15 for distributors.
func FieldsForRole(role Role) []FieldDef {
	if role == RoleManufacturer {
		return SharedFields
	}
	out := make([]FieldDef, 0, len(SharedFields)+len(DistributorOnlyFields))
	out = append(out, SharedFields...)
	out = append(out, DistributorOnlyFields...)
	return out
}

// FieldLabel resolves a key's label, falling back to the key itself.
func FieldLabel(key FieldKey) string {
	for _, f := range SharedFields {
		if f.Key == key {
			return f.Label
		}
	}
	for _, f := range DistributorOnlyFields {
		if f.Key == key {
			return f.Label
		}
	}
	return string(key)
}
