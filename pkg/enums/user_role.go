package enums

// UserRole identifies which dashboard a marketplace account belongs to.
type UserRole string

const (
	UserRoleAdmin   UserRole = "ADMIN"
	UserRoleArtiste UserRole = "ARTISTE"
	UserRoleClient  UserRole = "CLIENT"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleArtiste,
	UserRoleClient,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the role is known.
func (r UserRole) IsValid() bool {
	return known(r, validUserRoles)
}

// Label returns the French display label used on dashboards.
func (r UserRole) Label() string {
	switch r {
	case UserRoleAdmin:
		return "Admin"
	case UserRoleArtiste:
		return "Artiste"
	case UserRoleClient:
		return "Client"
	}
	return string(r)
}

// UnmarshalText accepts the role in any letter case.
func (r *UserRole) UnmarshalText(text []byte) error {
	parsed, err := ParseUserRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseUserRole converts raw input into a UserRole. The API has used both
// upper and lower case spellings, so matching ignores case.
func ParseUserRole(value string) (UserRole, error) {
	return parseFold("user role", value, validUserRoles)
}
