package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/herbal-kart/internal/domain/cart"
	"github.com/xenking/herbal-kart/internal/domain/catalog"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
	"github.com/xenking/herbal-kart/internal/domain/order"
	"github.com/xenking/herbal-kart/internal/domain/user"
	"github.com/xenking/herbal-kart/pkg/httpmiddleware"
)

// ValidationError reports a malformed request body or an invalid field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// sentinels maps domain sentinel errors to HTTP statuses. The sentinel text
// is used as the response message.
var sentinels = []struct {
	err    error
	status int
}{
	{catalog.ErrProductNotFound, http.StatusNotFound},
	{coupon.ErrNotFound, http.StatusNotFound},
	{order.ErrNotFound, http.StatusNotFound},
	{user.ErrNotFound, http.StatusNotFound},
	{order.ErrEmptyCart, http.StatusBadRequest},
	{user.ErrAlreadyExists, http.StatusBadRequest},
	{catalog.ErrAlreadyExists, http.StatusBadRequest},
	{coupon.ErrAlreadyExists, http.StatusBadRequest},
	{cart.ErrConcurrentUpdate, http.StatusConflict},
}

// statusOf returns the response status and message for err.
func statusOf(err error) (int, string) {
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.status, s.err.Error()
		}
	}

	var (
		validationErr *ValidationError
		catalogErr    *catalog.InvalidError
		couponErr     *coupon.InvalidError
		userErr       *user.InvalidError
		quantityErr   *cart.InvalidQuantityError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, validationErr.Error()
	case errors.As(err, &catalogErr):
		return http.StatusUnprocessableEntity, catalogErr.Error()
	case errors.As(err, &couponErr):
		return http.StatusUnprocessableEntity, couponErr.Error()
	case errors.As(err, &userErr):
		return http.StatusUnprocessableEntity, userErr.Error()
	case errors.As(err, &quantityErr):
		return http.StatusUnprocessableEntity, quantityErr.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

// fail writes the error response for err. Unexpected errors are logged.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusOf(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}
	httpmiddleware.WriteError(w, status, msg)
}
