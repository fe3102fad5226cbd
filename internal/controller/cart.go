package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inErrors "github.com/andikarp/keranjang/internal/errors"
	inHttp "github.com/andikarp/keranjang/internal/http"
	"github.com/andikarp/keranjang/internal/log"
	"github.com/andikarp/keranjang/internal/otel"
	"github.com/andikarp/keranjang/internal/service"
	"github.com/andikarp/keranjang/pkg/request"
)

type CartController struct {
	service *service.CartService
}

func AttachCartController(router *mux.Router, service *service.CartService) {
	controller := CartController{service: service}

	r := router.PathPrefix("/carts").Subrouter()
	r.HandleFunc("", controller.GetCart).Methods(http.MethodGet)
	r.HandleFunc("/events", controller.GetCartEvents).Methods(http.MethodGet)
	r.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	r.HandleFunc("/items", controller.UpdateItemQuantity).Methods(http.MethodPut)
	r.HandleFunc("/items", controller.ClearCart).Methods(http.MethodDelete)
	r.HandleFunc("/items/{productId}", controller.RemoveItem).Methods(http.MethodDelete)
}

func (t CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController GetCart").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "getting cart").Logger()
	logger.Info().Msg("getting cart")
	c = logger.WithContext(c)
	cart, err := t.service.GetCart(c)
	if err != nil {
		err = fmt.Errorf("failed getting cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("got cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully got cart",
		"data": map[string]interface{}{
			"cart": cart,
		},
	})
}

func (t CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController AddItem").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.AddCartItem{}
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

	logger = logger.With().
		Str(log.KeyProcess, "adding item").
		Str(log.KeyProductID, reqBody.ProductId.String()).
		Logger()
	logger.Info().Msg("adding item to cart")
	c = logger.WithContext(c)
	cart, err := t.service.AddItem(c, reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("added item to cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully added item to cart",
		"data": map[string]interface{}{
			"cart": cart,
		},
	})
}

func (t CartController) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateItemQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController UpdateItemQuantity").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.UpdateCartItem{}
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

	logger = logger.With().
		Str(log.KeyProcess, "updating item quantity").
		Str(log.KeyProductID, reqBody.ProductId.String()).
		Logger()
	logger.Info().Msg("updating item quantity")
	c = logger.WithContext(c)
	cart, err := t.service.UpdateItemQuantity(c, reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("updated item quantity")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully updated item quantity",
		"data": map[string]interface{}{
			"cart": cart,
		},
	})
}

func (t CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RemoveItem").
		Str(log.KeyProcess, "validating uuid").
		Logger()

	logger.Info().Msg("validating uuid")
	pathValues := mux.Vars(r)
	productId, err := uuid.Parse(pathValues["productId"])
	if err != nil {
		err = fmt.Errorf("failed parsing productId with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeErrorResponse(c, w, inErrors.ErrInvalidProductId)
		return
	}
	logger.Info().Msg("validated uuid")

	logger = logger.With().
		Str(log.KeyProcess, "removing item").
		Str(log.KeyProductID, productId.String()).
		Logger()
	logger.Info().Msg("removing item from cart")
	c = logger.WithContext(c)
	cart, err := t.service.RemoveItem(c, request.RemoveCartItem{ProductId: productId})
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("removed item from cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully removed item from cart",
		"data": map[string]interface{}{
			"cart": cart,
		},
	})
}

func (t CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ClearCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController ClearCart").
		Str(log.KeyProcess, "clearing cart").
		Logger()

	logger.Info().Msg("clearing cart")
	c = logger.WithContext(c)
	cart, err := t.service.ClearCart(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("cleared cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully cleared cart",
		"data": map[string]interface{}{
			"cart": cart,
		},
	})
}

func (t CartController) GetCartEvents(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetCartEvents")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController GetCartEvents").
		Str(log.KeyProcess, "getting cart events").
		Logger()

	logger.Info().Msg("getting cart events")
	c = logger.WithContext(c)
	events, err := t.service.GetCartEvents(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("got cart events")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully got cart events",
		"data": map[string]interface{}{
			"events": events,
		},
	})
}
