package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/certistudy/deletion-service/internal/config"
	"github.com/certistudy/deletion-service/internal/identity"
	"github.com/certistudy/deletion-service/internal/models"
	"github.com/certistudy/deletion-service/internal/repositories"
	"github.com/certistudy/deletion-service/internal/utils"
)

// ---------------------------------------------------------------------
// DeletionService interface
// ---------------------------------------------------------------------
type DeletionService interface {
	// RequestDeletion verifies the member's id/email pair and queues a
	// confirmation email carrying a one-time deletion link.
	RequestDeletion(ctx context.Context, memberID, email string) error

	// ConfirmDeletion consumes a deletion token: it deletes the identity
	// account and the member profile, then marks the token used.
	ConfirmDeletion(ctx context.Context, token string) error
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------
type deletionService struct {
	memberRepo     repositories.MemberRepository
	tokenRepo      repositories.DeletionTokenRepository
	outboxRepo     repositories.OutboxRepository
	identityClient identity.Client
	cfg            *config.Config
}

func NewDeletionService(
	memberRepo repositories.MemberRepository,
	tokenRepo repositories.DeletionTokenRepository,
	outboxRepo repositories.OutboxRepository,
	identityClient identity.Client,
	cfg *config.Config,
) DeletionService {
	return &deletionService{
		memberRepo:     memberRepo,
		tokenRepo:      tokenRepo,
		outboxRepo:     outboxRepo,
		identityClient: identityClient,
		cfg:            cfg,
	}
}

func (s *deletionService) RequestDeletion(ctx context.Context, memberID, email string) error {
	if memberID == "" || email == "" {
		return &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeValidation,
			Message:    "Missing id or email",
			Err:        utils.ErrValidation,
		}
	}

	utils.Logger.Infof("Deletion requested for member %s", memberID)

	member, err := s.memberRepo.GetByMemberID(ctx, memberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &utils.AppError{
				StatusCode: http.StatusNotFound,
				Code:       utils.ErrCodeNotFound,
				Message:    "No account found for the given id",
				Err:        utils.ErrMemberNotFound,
			}
		}
		utils.Logger.WithError(err).Errorf("Failed to load member %s", memberID)
		return err
	}

	// Exact match only. Lookups never normalize case, so a mismatch here
	// means the caller's email is not the one on record.
	if member.Email != email {
		return &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeValidation,
			Message:    "Email does not match the account on record",
			Err:        utils.ErrValidation,
		}
	}

	token, err := utils.GenerateDeletionToken()
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to generate deletion token")
		return err
	}

	now := time.Now().UTC()
	record := &models.DeletionToken{
		Token:     token,
		UID:       member.UID,
		Email:     member.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
		Used:      false,
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to store deletion token for member %s", memberID)
		return err
	}

	link := fmt.Sprintf("%s/confirm-deletion?token=%s", s.cfg.AppDomain, token)
	subject := fmt.Sprintf("Confirm your %s account deletion", s.cfg.OrganizationName)
	html := fmt.Sprintf(deletionConfirmEmailHTML, s.cfg.OrganizationName, link, now.Year(), s.cfg.OrganizationName)

	if err := s.outboxRepo.Enqueue(ctx, member.Email, subject, html); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to enqueue confirmation email for member %s", memberID)
		return &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeExternalServiceFailure,
			Message:    "Failed to send confirmation email",
			Err:        fmt.Errorf("%w: %v", utils.ErrExternalServiceFailure, err),
		}
	}

	utils.Logger.Infof("Deletion token created for member %s; confirmation email queued", memberID)
	return nil
}

func (s *deletionService) ConfirmDeletion(ctx context.Context, token string) error {
	if token == "" {
		return &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeValidation,
			Message:    "Token missing",
			Err:        utils.ErrValidation,
		}
	}

	record, err := s.tokenRepo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &utils.AppError{
				StatusCode: http.StatusBadRequest,
				Code:       utils.ErrCodeInvalidToken,
				Message:    "Invalid or expired link",
				Err:        utils.ErrInvalidToken,
			}
		}
		utils.Logger.WithError(err).Error("Failed to load deletion token")
		return err
	}

	if record.Used {
		return &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeTokenUsed,
			Message:    "This link has already been used",
			Err:        utils.ErrTokenUsed,
		}
	}

	now := time.Now().UTC()
	if record.Expired(now) {
		if err := s.tokenRepo.Delete(ctx, token); err != nil {
			utils.Logger.WithError(err).Warn("Failed to delete expired deletion token")
		}
		return &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeTokenExpired,
			Message:    "This link has expired. Please request deletion again",
			Err:        utils.ErrTokenExpired,
		}
	}

	if record.UID == uuid.Nil {
		return &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "User id not found in deletion request",
			Err:        errors.New("deletion token has no uid"),
		}
	}

	utils.Logger.Infof("Confirming deletion for uid %s", record.UID)

	if err := s.identityClient.DeleteAccount(ctx, record.UID); err != nil {
		// An already-deleted identity account is fine: finish removing
		// the rest of the member's data.
		if errors.Is(err, identity.ErrAccountNotFound) {
			utils.Logger.Warnf("Identity account for uid %s already gone", record.UID)
		} else {
			utils.Logger.WithError(err).Errorf("Failed to delete identity account for uid %s", record.UID)
			return &utils.AppError{
				StatusCode: http.StatusInternalServerError,
				Code:       utils.ErrCodeExternalServiceFailure,
				Message:    "Error deleting account",
				Err:        fmt.Errorf("%w: %v", utils.ErrExternalServiceFailure, err),
			}
		}
	}

	if err := s.memberRepo.DeleteProfile(ctx, record.UID); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to delete profile for uid %s", record.UID)
		return &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Error deleting account",
			Err:        err,
		}
	}

	claimed, err := s.tokenRepo.MarkUsed(ctx, token, now)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to mark deletion token used")
		return &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Error deleting account",
			Err:        err,
		}
	}
	if !claimed {
		// Another confirm got there first.
		return &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeTokenUsed,
			Message:    "This link has already been used",
			Err:        utils.ErrTokenUsed,
		}
	}

	utils.Logger.Infof("Account deletion completed for uid %s", record.UID)
	return nil
}
