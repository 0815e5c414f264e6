package dto

import "github.com/GlebRadaev/paylink/internal/domain"

type ProfileDTO struct {
	ID           int      `json:"id" example:"1"`
	Username     string   `json:"username" example:"alice"`
	FirstName    string   `json:"firstName" example:"Alice"`
	LastName     string   `json:"lastName" example:"Smith"`
	DisplayName  string   `json:"displayName" example:"Alice Smith"`
	Relationship string   `json:"relationship" example:"friend"`
	FriendsCount int      `json:"friendsCount" example:"3"`
	Balance      *float64 `json:"balance,omitempty" example:"500"`
}

type ProfileResponseDTO struct {
	Profile ProfileDTO `json:"profile"`
}

type UpdateProfileRequestDTO struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type RelationshipRequestDTO struct {
	Relationship string `json:"relationship" example:"friend"`
}

type PartyDTO struct {
	ID          int    `json:"id" example:"1"`
	Username    string `json:"username" example:"alice"`
	FirstName   string `json:"firstName" example:"Alice"`
	LastName    string `json:"lastName" example:"Smith"`
	DisplayName string `json:"displayName" example:"Alice Smith"`
}

type FriendsResponseDTO struct {
	Friends []PartyDTO `json:"friends"`
}

type SearchResponseDTO struct {
	Profiles []PartyDTO `json:"profiles"`
}

func NewPartyDTO(p domain.Party) PartyDTO {
	return PartyDTO{
		ID:          p.ID,
		Username:    p.Username,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DisplayName: p.FirstName + " " + p.LastName,
	}
}

func NewProfilePartyDTO(p domain.Profile) PartyDTO {
	return NewPartyDTO(domain.Party{
		ID:        p.UserID,
		Username:  p.Username,
		FirstName: p.FirstName,
		LastName:  p.LastName,
	})
}
