package service

import (
	"context"
	goerrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/andikarp/keranjang/internal/common"
	"github.com/andikarp/keranjang/internal/errors"
	"github.com/andikarp/keranjang/internal/log"
	"github.com/andikarp/keranjang/internal/otel"
	"github.com/andikarp/keranjang/internal/repository"
	"github.com/andikarp/keranjang/pkg/request"
	"github.com/andikarp/keranjang/pkg/response"
)

type AuthService struct {
	queries   *repository.Queries
	merger    *MergeService
	secretKey string
}

func NewAuthService(queries *repository.Queries, merger *MergeService, secretKey string) *AuthService {
	return &AuthService{queries: queries, merger: merger, secretKey: secretKey}
}

func (s *AuthService) Register(c context.Context, param request.Register) (response.User, error) {
	c, span := otel.Tracer.Start(c, "AuthService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AuthService Register").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "hashing password").Logger()
	hashed, err := bcrypt.GenerateFromPassword([]byte(param.Password), bcrypt.DefaultCost)
	if err != nil {
		err = fmt.Errorf("failed hashing password with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "inserting user").Logger()
	logger.Info().Msg("inserting user")
	user, err := s.queries.InsertUser(c, repository.InsertUserParams{
		Username: param.Username,
		Email:    param.Email,
		Password: string(hashed),
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			err = errors.ErrEmailTaken
		} else {
			err = fmt.Errorf("failed inserting user with error=%w", err)
		}
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Str(log.KeyUserID, user.ID.String()).Msg("registered user")
	return response.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Time,
	}, nil
}

// Login authenticates the user, issues a bearer token and merges the caller's
// guest cart into the user's cart. A merge failure is logged but never blocks
// the login; the guest cart simply stays active for a later attempt.
func (s *AuthService) Login(c context.Context, param request.Login, priorSessionKey string) (response.Login, error) {
	c, span := otel.Tracer.Start(c, "AuthService Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AuthService Login").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding user").Logger()
	logger.Info().Msg("finding user")
	user, err := s.queries.FindUserByEmail(c, param.Email)
	if goerrors.Is(err, pgx.ErrNoRows) {
		return response.Login{}, errors.ErrInvalidCredentials
	}
	if err != nil {
		err = fmt.Errorf("failed finding user with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "verifying password").Logger()
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(param.Password)); err != nil {
		return response.Login{}, errors.ErrInvalidCredentials
	}

	logger = logger.With().Str(log.KeyProcess, "issuing token").Logger()
	token, err := common.NewLoginToken(s.secretKey, user.ID)
	if err != nil {
		err = fmt.Errorf("failed issuing login token with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "merging guest cart").Logger()
	if err := s.merger.MergeGuestCart(c, user.ID, priorSessionKey); err != nil {
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg("failed merging guest cart")
	}

	logger.Info().Str(log.KeyUserID, user.ID.String()).Msg("logged in")
	return response.Login{
		Token: token,
		User: response.User{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			CreatedAt: user.CreatedAt.Time,
		},
	}, nil
}
