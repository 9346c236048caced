package student

// Field names accepted by the bulk student endpoints.
const (
	FieldName             = "name"
	FieldGender           = "gender"
	FieldDateOfBirth      = "date_of_birth"
	FieldEmail            = "email"
	FieldPhoneNumber      = "phone_number"
	FieldUSN              = "usn"
	FieldEnrollmentNumber = "enrollment_number"
	FieldBranch           = "branch"
	FieldYearOfStudy      = "year_of_study"
	FieldSemester         = "semester"
	FieldCGPA             = "cgpa"
	FieldAddress          = "address"
	FieldCity             = "city"
	FieldState            = "state"
	FieldPincode          = "pincode"
	FieldGuardianName     = "guardian_name"
	FieldGuardianContact  = "guardian_contact"
)

var catalog = []string{
	FieldName,
	FieldGender,
	FieldDateOfBirth,
	FieldEmail,
	FieldPhoneNumber,
	FieldUSN,
	FieldEnrollmentNumber,
	FieldBranch,
	FieldYearOfStudy,
	FieldSemester,
	FieldCGPA,
	FieldAddress,
	FieldCity,
	FieldState,
	FieldPincode,
	FieldGuardianName,
	FieldGuardianContact,
}

var primaryCandidates = []string{
	FieldEmail,
	FieldUSN,
	FieldEnrollmentNumber,
}

// Record is one projected spreadsheet row keyed by catalog field.
type Record map[string]any

// Catalog returns the ordered list of target fields. The order is the
// tie-break used by auto-mapping.
func Catalog() []string {
	out := make([]string, len(catalog))
	copy(out, catalog)
	return out
}

// PrimaryCandidates returns the fields usable as an upsert key.
func PrimaryCandidates() []string {
	out := make([]string, len(primaryCandidates))
	copy(out, primaryCandidates)
	return out
}

func IsField(name string) bool {
	return contains(catalog, name)
}

func IsPrimaryCandidate(name string) bool {
	return contains(primaryCandidates, name)
}

// StringCoerced reports whether values for field are sent as strings
// regardless of the spreadsheet cell type.
func StringCoerced(field string) bool {
	return field == FieldPhoneNumber || field == FieldPincode
}

func contains(values []string, name string) bool {
	for _, value := range values {
		if value == name {
			return true
		}
	}
	return false
}
