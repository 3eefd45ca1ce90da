package client

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/iup"
)

// ErrorKind classifies the failures a caller has to tell apart.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindServer
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// APIError is a non-2xx answer of the backend.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *APIError) Kind() ErrorKind {
	switch {
	case e.Status == http.StatusUnauthorized:
		return KindUnauthorized
	case e.Status == http.StatusForbidden:
		return KindForbidden
	case e.Status == http.StatusNotFound:
		return KindNotFound
	case e.Status == http.StatusConflict:
		return KindConflict
	case e.Status >= 500:
		return KindServer
	case e.Status >= 400:
		return KindValidation
	}
	return KindUnknown
}

// networkError is returned when the backend could not be reached at all.
type networkError struct {
	err error
}

func (e *networkError) Error() string { return "network: " + e.err.Error() }
func (e *networkError) Cause() error  { return e.err }

// KindOf returns the kind of err, looking through wrapped errors.
func KindOf(err error) ErrorKind {
	for err != nil {
		switch e := err.(type) {
		case *APIError:
			return e.Kind()
		case *networkError:
			return KindNetwork
		case *core.ValidationError:
			return KindValidation
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			break
		}
		err = cause.Cause()
	}
	return KindUnknown
}

var userMessages = map[ErrorKind]string{
	KindNetwork:      "Сервер недоступен. Проверьте подключение к сети.",
	KindUnauthorized: "Сеанс истёк. Войдите снова.",
	KindForbidden:    "Недостаточно прав для этого действия.",
	KindNotFound:     "Запрашиваемые данные не найдены.",
	KindConflict:     "Действие недоступно для текущего статуса этапа.",
	KindServer:       "Ошибка сервера. Попробуйте позже.",
	KindUnknown:      "Произошла ошибка.",
}

var validationMessages = map[error]string{
	iup.ErrTopicIncomplete: "Укажите тему диссертации на казахском, русском и английском языках.",
	iup.ErrCommentRequired: "Укажите причину отклонения.",
	iup.ErrPayloadEmpty:    "Заполните содержание этапа.",
}

// UserMessage turns err into text fit for the user. The backend message wins when there is one.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Kind() != KindServer {
		return apiErr.Message
	}
	var valErr *core.ValidationError
	if errors.As(err, &valErr) {
		if msg, ok := validationMessages[valErr.Err]; ok {
			return msg
		}
		return valErr.Error()
	}
	kind := KindOf(err)
	if msg, ok := userMessages[kind]; ok {
		return msg
	}
	return userMessages[KindUnknown]
}
