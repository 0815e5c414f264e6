package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/paylink/internal/domain"
	"github.com/GlebRadaev/paylink/internal/dto"
	"github.com/GlebRadaev/paylink/internal/service/friendservice"
	"github.com/GlebRadaev/paylink/internal/service/profileservice"
	"github.com/GlebRadaev/paylink/pkg/auth"
	"github.com/GlebRadaev/paylink/pkg/utils"
)

type ProfileService interface {
	Get(ctx context.Context, userID int) (*domain.Profile, int, error)
	UpdateName(ctx context.Context, userID int, firstName, lastName string) (*domain.Profile, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Profile, error)
}

type FriendService interface {
	Request(ctx context.Context, requesterID, requestedID int) (*domain.RelationshipEdge, error)
	Remove(ctx context.Context, a, b int) error
	Relationship(ctx context.Context, viewerID, otherID int) (string, error)
	Friends(ctx context.Context, userID int) ([]domain.Profile, error)
}

type ProfileHandler struct {
	profileService ProfileService
	friendService  FriendService
}

func New(profileService ProfileService, friendService FriendService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		friendService:  friendService,
	}
}

// GetMe godoc
//
//	@Summary		Get current user profile
//	@Description	Retrieve the authenticated user's profile, friends count and balance.
//	@Tags			Profiles
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.ProfileResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Profile not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/me [get]
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	profile, friendsCount, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, profileservice.ErrProfileNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.ProfileResponseDTO{
		Profile: newProfileDTO(profile, friendservice.RelationshipMe, friendsCount, true),
	})
}

// UpdateMe godoc
//
//	@Summary		Update profile name
//	@Description	Update first and/or last name of the authenticated user. Last write wins.
//	@Tags			Profiles
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.UpdateProfileRequestDTO	true	"Name update payload"
//	@Success		200		{object}	dto.ProfileResponseDTO
//	@Failure		400		{object}	utils.Response	"Missing required fields"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		404		{object}	utils.Response	"Profile not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/me [put]
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.UpdateProfileRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FirstName == nil && req.LastName == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	profile, _, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, profileservice.ErrProfileNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	firstName := profile.FirstName
	lastName := profile.LastName
	if req.FirstName != nil {
		firstName = *req.FirstName
	}
	if req.LastName != nil {
		lastName = *req.LastName
	}

	updated, err := h.profileService.UpdateName(r.Context(), userID, firstName, lastName)
	if err != nil {
		if errors.Is(err, profileservice.ErrProfileNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	updated.Username = profile.Username

	utils.RespondWithJSON(w, http.StatusOK, dto.ProfileResponseDTO{
		Profile: newProfileDTO(updated, friendservice.RelationshipMe, 0, true),
	})
}

// GetProfile godoc
//
//	@Summary		Get a user profile
//	@Description	Retrieve another user's profile with the viewer-relative relationship. The balance is included only for the viewer's own profile.
//	@Tags			Profiles
//	@Security		BearerAuth
//	@Produce		json
//	@Param			userID	path		int	true	"Profile user id"
//	@Success		200		{object}	dto.ProfileResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid user id"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		404		{object}	utils.Response	"Profile not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/profiles/{userID} [get]
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	viewerID := r.Context().Value(auth.UserIDKey).(int)

	profileID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	profile, friendsCount, err := h.profileService.Get(r.Context(), profileID)
	if err != nil {
		if errors.Is(err, profileservice.ErrProfileNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	relationship, err := h.friendService.Relationship(r.Context(), viewerID, profileID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.ProfileResponseDTO{
		Profile: newProfileDTO(profile, relationship, friendsCount, viewerID == profileID),
	})
}

// SetRelationship godoc
//
//	@Summary		Add or remove a friend
//	@Description	relationship=friend sends a friend request or accepts a pending one; relationship=none removes any edge (unfriend, cancel or deny).
//	@Tags			Profiles
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		int							true	"Other user id"
//	@Param			request	body		dto.RelationshipRequestDTO	true	"Requested relationship"
//	@Success		200		{object}	utils.Response
//	@Failure		400		{object}	utils.Response	"Invalid relationship field"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/profiles/{userID} [post]
func (h *ProfileHandler) SetRelationship(w http.ResponseWriter, r *http.Request) {
	viewerID := r.Context().Value(auth.UserIDKey).(int)

	otherID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req dto.RelationshipRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Relationship {
	case "friend":
		_, err = h.friendService.Request(r.Context(), viewerID, otherID)
	case "none":
		err = h.friendService.Remove(r.Context(), viewerID, otherID)
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid relationship field")
		return
	}
	if err != nil {
		if errors.Is(err, friendservice.ErrSelfRelationship) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "ok"})
}

// GetFriends godoc
//
//	@Summary		Get friends of a user
//	@Description	List users whose relationship with the given user is friend.
//	@Tags			Profiles
//	@Security		BearerAuth
//	@Produce		json
//	@Param			userID	path		int	true	"User id"
//	@Success		200		{object}	dto.FriendsResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid user id"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/profiles/{userID}/friends [get]
func (h *ProfileHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	friends, err := h.friendService.Friends(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := dto.FriendsResponseDTO{Friends: make([]dto.PartyDTO, 0, len(friends))}
	for _, friend := range friends {
		response.Friends = append(response.Friends, dto.NewProfilePartyDTO(friend))
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Search godoc
//
//	@Summary		Search profiles
//	@Description	Search profiles by username or name.
//	@Tags			Profiles
//	@Security		BearerAuth
//	@Produce		json
//	@Param			query	query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	dto.SearchResponseDTO
//	@Failure		400		{object}	utils.Response	"Missing search query field"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/profiles [get]
func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing search query field")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	profiles, err := h.profileService.Search(r.Context(), query, limit)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := dto.SearchResponseDTO{Profiles: make([]dto.PartyDTO, 0, len(profiles))}
	for _, profile := range profiles {
		response.Profiles = append(response.Profiles, dto.NewProfilePartyDTO(profile))
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

func newProfileDTO(p *domain.Profile, relationship string, friendsCount int, includeBalance bool) dto.ProfileDTO {
	d := dto.ProfileDTO{
		ID:           p.UserID,
		Username:     p.Username,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		DisplayName:  p.FirstName + " " + p.LastName,
		Relationship: relationship,
		FriendsCount: friendsCount,
	}
	if includeBalance {
		balance := p.Balance
		d.Balance = &balance
	}
	return d
}
