package models

// Actor is a resolved caller: the user plus the role-specific profile
// that scopes what they may see. Exactly one of Academy/Student is set
// for those roles; both stay nil for admin and other. A role whose
// profile is missing keeps a nil profile, which downstream scoping
// treats as "sees nothing".
type Actor struct {
	User    *User
	Role    string
	Academy *Academy
	Student *Student
}
