package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes an APIResponse envelope with the given status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes success response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes bad request error.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// InternalServerErrorResponse writes internal server error.
func InternalServerErrorResponse(c echo.Context) error {
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
}

// AppErrorResponse maps err to an AppError and writes it.
func AppErrorResponse(c echo.Context, err error) error {
	appErr := FromDomain(err)
	if appErr.Status >= http.StatusInternalServerError && appErr.Status != http.StatusServiceUnavailable && appErr.Status != http.StatusBadGateway {
		return InternalServerErrorResponse(c)
	}
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}
