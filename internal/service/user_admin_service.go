package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
	"github.com/patrimoine-ma/patrimoine-api/internal/roles"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUnknownGroup = errors.New("unknown group")
)

const entityUser = "user"

// UserAdminService lets superusers inspect accounts and flip group
// memberships. Role changes take effect on the target's next request.
type UserAdminService interface {
	List(ctx context.Context, actor models.User) ([]dto.UserResponse, error)
	ToggleGroup(ctx context.Context, actor models.User, userID uint, groupName string) (dto.GroupToggleResponse, error)
}

type userAdminService struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewUserAdminService constructs the account administration service.
func NewUserAdminService(users repository.UserRepository, logger zerolog.Logger) UserAdminService {
	return &userAdminService{
		users:  users,
		logger: logger.With().Str("component", "user_admin_service").Logger(),
	}
}

func (s *userAdminService) List(ctx context.Context, actor models.User) ([]dto.UserResponse, error) {
	if !actor.IsSuperuser {
		return nil, ErrNotAuthorized
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user, string(roles.Resolve(user))))
	}
	return responses, nil
}

func (s *userAdminService) ToggleGroup(ctx context.Context, actor models.User, userID uint, groupName string) (dto.GroupToggleResponse, error) {
	if !actor.IsSuperuser {
		return dto.GroupToggleResponse{}, ErrNotAuthorized
	}

	if groupName != models.GroupAdmin && groupName != models.GroupInspecteur {
		return dto.GroupToggleResponse{}, ErrUnknownGroup
	}

	audit, err := BuildAuditLog(actorFromUser(actor), AuditEntry{
		Action:     models.ActionGroupToggle,
		EntityType: entityUser,
		EntityID:   userID,
		NewData:    map[string]interface{}{"group": groupName},
	})
	if err != nil {
		return dto.GroupToggleResponse{}, err
	}

	// The repository completes the entry with the resulting membership and
	// commits it alongside the flip; neither survives without the other.
	member, err := s.users.ToggleGroup(ctx, userID, groupName, &audit)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupToggleResponse{}, ErrUserNotFound
		}
		return dto.GroupToggleResponse{}, err
	}

	s.logger.Info().Uint("user_id", userID).Str("group", groupName).Bool("member", member).Msg("group membership toggled")
	return dto.GroupToggleResponse{UserID: userID, Group: groupName, Member: member}, nil
}
