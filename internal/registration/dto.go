// AngelaMos | 2026
// dto.go

package registration

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type ActivateRequest struct {
	Code string `json:"code" validate:"required,len=4,number"`
}
