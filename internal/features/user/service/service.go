package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "pronet-backend/internal/common/errors"
	"pronet-backend/internal/platform/identity"

	"pronet-backend/internal/features/user/models"
	"pronet-backend/internal/features/user/repository"
)

// UploadSigner issues presigned upload URLs for profile images.
type UploadSigner interface {
	SignedPutURL(ctx context.Context, key string) (string, error)
}

// Image types accepted by the signed upload endpoint.
const (
	ImageTypeDisplayPicture  = "display_picture"
	ImageTypeBackgroundImage = "background_image"
)

type UserService interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, update *models.UserUpdate) (*models.User, error)

	EndorseSkill(ctx context.Context, actorID, targetID, skill string) (*models.User, error)
	UnendorseSkill(ctx context.Context, actorID, targetID, skill string) (*models.User, error)

	// GetOrCreateByIdentity resolves the verified identity to a local user
	// document, provisioning one on first sight.
	GetOrCreateByIdentity(ctx context.Context, info *identity.UserInfo) (*models.AuthUser, error)

	SignedUploadURL(ctx context.Context, userID, imageType string) (string, error)
}

type userService struct {
	users  repository.UserRepository
	signer UploadSigner
	now    func() time.Time
}

func NewUserService(users repository.UserRepository, signer UploadSigner) UserService {
	return &userService{
		users:  users,
		signer: signer,
		now:    time.Now,
	}
}

func (s *userService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError(apperrors.MsgResourceNotFound)
		}
		return nil, apperrors.NewUnknownError("read user", err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, update *models.UserUpdate) (*models.User, error) {
	user, err := s.users.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError(apperrors.MsgResourceNotFound)
		}
		return nil, apperrors.NewUnknownError("update user", err)
	}
	return user, nil
}

func (s *userService) EndorseSkill(ctx context.Context, actorID, targetID, skill string) (*models.User, error) {
	if actorID == targetID {
		return nil, apperrors.NewRedundantError(apperrors.MsgUserRequestSelf)
	}

	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	skills, found := appendEndorser(target.Skills, skill, actorID)
	if !found {
		return nil, apperrors.NewResourceNotFoundError(apperrors.MsgResourceNotFound)
	}
	if skills == nil {
		return nil, apperrors.NewRedundantError(apperrors.MsgUserSkillEndorsed)
	}

	return s.UpdateProfile(ctx, targetID, &models.UserUpdate{Skills: &skills})
}

func (s *userService) UnendorseSkill(ctx context.Context, actorID, targetID, skill string) (*models.User, error) {
	if actorID == targetID {
		return nil, apperrors.NewRedundantError(apperrors.MsgUserRequestSelf)
	}

	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	skills, found := removeEndorser(target.Skills, skill, actorID)
	if !found {
		return nil, apperrors.NewResourceNotFoundError(apperrors.MsgResourceNotFound)
	}
	if skills == nil {
		return nil, apperrors.NewRedundantError(apperrors.MsgUserSkillUnendorsed)
	}

	return s.UpdateProfile(ctx, targetID, &models.UserUpdate{Skills: &skills})
}

func (s *userService) GetOrCreateByIdentity(ctx context.Context, info *identity.UserInfo) (*models.AuthUser, error) {
	existing, err := s.users.GetByEmail(ctx, info.Email)
	if err == nil {
		return &models.AuthUser{ID: existing.ID, Email: existing.Email, Name: existing.Name}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewUnknownError("read user by email", err)
	}

	now := s.now()
	user := &models.User{
		ID:          info.Sub,
		Email:       info.Email,
		Name:        info.Name,
		DateOfBirth: parseBirthdate(info.Birthdate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewUnknownError("create user", err)
	}
	return &models.AuthUser{ID: user.ID, Email: user.Email, Name: user.Name}, nil
}

func (s *userService) SignedUploadURL(ctx context.Context, userID, imageType string) (string, error) {
	if imageType != ImageTypeDisplayPicture && imageType != ImageTypeBackgroundImage {
		return "", apperrors.NewInvalidError(apperrors.MsgSignedURLQueryParam)
	}

	key := fmt.Sprintf("profile-images/%s/%s", userID, imageType)
	url, err := s.signer.SignedPutURL(ctx, key)
	if err != nil {
		return "", apperrors.NewThirdPartyError("sign upload url", err)
	}
	return url, nil
}

// appendEndorser returns a skill list with actorID recorded as an endorser of
// skill. found reports whether the skill exists at all; a nil list with
// found=true means the endorsement was already present.
func appendEndorser(skills []models.UserSkill, skill, actorID string) ([]models.UserSkill, bool) {
	for i, entry := range skills {
		if entry.Skill != skill {
			continue
		}
		for _, endorser := range entry.Endorsers {
			if endorser == actorID {
				return nil, true
			}
		}
		updated := cloneSkills(skills)
		updated[i].Endorsers = append(updated[i].Endorsers, actorID)
		return updated, true
	}
	return nil, false
}

func removeEndorser(skills []models.UserSkill, skill, actorID string) ([]models.UserSkill, bool) {
	for i, entry := range skills {
		if entry.Skill != skill {
			continue
		}
		for j, endorser := range entry.Endorsers {
			if endorser == actorID {
				updated := cloneSkills(skills)
				updated[i].Endorsers = append(updated[i].Endorsers[:j], updated[i].Endorsers[j+1:]...)
				return updated, true
			}
		}
		return nil, true
	}
	return nil, false
}

func cloneSkills(skills []models.UserSkill) []models.UserSkill {
	out := make([]models.UserSkill, len(skills))
	copy(out, skills)
	for i := range out {
		endorsers := make([]string, len(out[i].Endorsers))
		copy(endorsers, out[i].Endorsers)
		out[i].Endorsers = endorsers
	}
	return out
}

// parseBirthdate converts the OIDC birthdate claim (YYYY-MM-DD) to unix
// milliseconds; an absent or malformed claim yields zero.
func parseBirthdate(birthdate string) int64 {
	if birthdate == "" {
		return 0
	}
	t, err := time.Parse("2006-01-02", birthdate)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
