package server

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/playperu/geohunt/internal/store"
)

// testAccessCode is always accepted so the flow can be tried without a purchase.
const testAccessCode = "TEST-1234"

var accessCodePattern = regexp.MustCompile(`^[A-Z0-9-]{6,}$`)

// VerifyCodeRequest checks a code's format, or, when Registration is set,
// whether it is the code that registration was made with.
type VerifyCodeRequest struct {
	Code         string `json:"code"`
	Registration string `json:"registration,omitempty"`
}

type VerifyCodeResponse struct {
	Valid bool `json:"valid"`
}

// validAccessCode is a format check only, not a security boundary.
func validAccessCode(code string) bool {
	return code == testAccessCode || accessCodePattern.MatchString(code)
}

func handleVerifyCode(logger *slog.Logger, regs *store.Registrations) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VerifyCodeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Code = strings.TrimSpace(req.Code)
		if req.Code == "" {
			writeError(w, http.StatusBadRequest, "missing code")
			return
		}
		if req.Registration == "" {
			writeJSON(w, http.StatusOK, VerifyCodeResponse{Valid: validAccessCode(req.Code)})
			return
		}

		ok, err := regs.CodeMatches(r.Context(), req.Registration, req.Code)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "registration not found")
			return
		}
		if err != nil {
			logger.Error("checking registration code", "registration", req.Registration, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, VerifyCodeResponse{Valid: ok})
	}
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Consent   bool   `json:"consent"`
	Terms     bool   `json:"terms"`
	Code      string `json:"code,omitempty"`
	TS        int64  `json:"ts,omitempty"`
}

// RegisterResponse reports Returning when the email was registered before.
type RegisterResponse struct {
	OK        bool   `json:"ok"`
	ID        string `json:"id,omitempty"`
	Returning bool   `json:"returning"`
}

// validPhone is lenient: at least ten digits, any punctuation.
func validPhone(s string) bool {
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 10
}

func (req *RegisterRequest) normalize() {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Code = strings.TrimSpace(req.Code)
}

func (req RegisterRequest) problem() string {
	switch {
	case req.FirstName == "" || req.LastName == "" || req.Email == "":
		return "firstName, lastName and email are required"
	case !validPhone(req.Phone):
		return "phone must have at least 10 digits"
	case !req.Consent || !req.Terms:
		return "consent and terms must be accepted"
	}
	return ""
}

func handleRegister(logger *slog.Logger, regs *store.Registrations) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.normalize()
		if msg := req.problem(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		id, err := regs.Save(r.Context(), store.Registration{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
			Email:     req.Email,
			Consent:   req.Consent,
			Terms:     req.Terms,
			Code:      req.Code,
			ClientTS:  req.TS,
		})
		if err != nil {
			logger.Error("saving registration", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// The profile is already stored; a failed count only loses the hint.
		n, err := regs.Count(r.Context(), req.Email)
		if err != nil {
			logger.Error("counting registrations", "email", req.Email, "error", err)
		}

		logger.Info("player registered", "registration", id, "email", req.Email, "registrations", n)
		writeJSON(w, http.StatusOK, RegisterResponse{OK: true, ID: id, Returning: n > 1})
	}
}
