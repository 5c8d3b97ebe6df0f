package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
)

func newValidator() *validator.Validate {
	v := validator.New()
	// в ошибках: имена из json-тегов
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

const maxBody = 64 << 10

// decode читает JSON строго (без лишних полей, только целые числа) и
// прогоняет validator. false: ответ с ошибкой уже отправлен.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	const op = "api.decode"
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, apperr.New(op, apperr.ErrInvalidInput, "malformed body: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
			}
			err = errors.New(strings.Join(parts, "; "))
		}
		s.writeError(w, r, apperr.New(op, apperr.ErrInvalidInput, "%v", err))
		return false
	}
	return true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		s.writeError(w, r, apperr.New("api.pathID", apperr.ErrInvalidInput, "bad %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// queryInt: необязательный целый параметр в [0, max].
func (s *Server) queryInt(w http.ResponseWriter, r *http.Request, name string, def, upper int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > upper {
		s.writeError(w, r, apperr.New("api.queryInt", apperr.ErrInvalidInput, "%s must be 0..%d", name, upper))
		return 0, false
	}
	return n, true
}
