package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/andikarp/keranjang/internal/common"
	"github.com/andikarp/keranjang/internal/common/constants"
	inErrors "github.com/andikarp/keranjang/internal/errors"
	inHttp "github.com/andikarp/keranjang/internal/http"
	"github.com/andikarp/keranjang/internal/log"
	"github.com/andikarp/keranjang/internal/otel"
	"github.com/andikarp/keranjang/internal/service"
	"github.com/andikarp/keranjang/pkg/request"
)

type AuthController struct {
	service   *service.AuthService
	secretKey string
}

func AttachAuthController(router *mux.Router, service *service.AuthService, secretKey string) {
	controller := AuthController{service: service, secretKey: secretKey}

	r := router.PathPrefix("/auth").Subrouter()
	r.HandleFunc("/register", controller.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", controller.Login).Methods(http.MethodPost)
}

func (t AuthController) Register(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AuthController Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AuthController Register").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.Register{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating requestbody").Logger()
	logger.Info().Msg("validating request body")
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "registering user").Logger()
	logger.Info().Msg("registering user")
	c = logger.WithContext(c)
	user, err := t.service.Register(c, reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("registered user")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "successfully registered user",
		"data": map[string]interface{}{
			"user": user,
		},
	})
}

func (t AuthController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AuthController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AuthController Login").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.Login{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating requestbody").Logger()
	logger.Info().Msg("validating request body")
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("validated request body")

	// The guest key travels into the merge before the session is rotated;
	// after login the old cookie is useless to whoever else might hold it.
	priorSessionKey := common.SessionKeyFromContext(c)

	logger = logger.With().Str(log.KeyProcess, "logging in").Logger()
	logger.Info().Msg("logging in")
	c = logger.WithContext(c)
	login, err := t.service.Login(c, reqBody, priorSessionKey)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("logged in")

	logger = logger.With().Str(log.KeyProcess, "rotating session").Logger()
	_, signed, err := common.NewSessionToken(t.secretKey)
	if err != nil {
		logger.Error().Err(err).Msg("failed rotating session token")
	} else {
		http.SetCookie(w, &http.Cookie{
			Name:     constants.SessionCookieName,
			Value:    signed,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully logged in",
		"data": map[string]interface{}{
			"login": login,
		},
	})
}
