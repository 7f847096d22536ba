package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeBody(w, r, req.decode); err != nil {
		fail(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		fail(w, r, err)
		return
	}

	id, err := h.users.Register(r.Context(), req.Name, req.Email, req.Mobile)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeID(w, "user_id", id)
}

// login looks the user up by email, then mobile. Nothing is verified.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeBody(w, r, req.decode); err != nil {
		fail(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		fail(w, r, err)
		return
	}

	u, err := h.users.Login(r.Context(), req.Email, req.Mobile)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("user_id", func(e *jx.Encoder) { e.Str(u.ID) })
			e.Field("name", func(e *jx.Encoder) { nullStr(e, u.Name) })
			e.Field("email", func(e *jx.Encoder) { e.Str(u.Email) })
			e.Field("mobile", func(e *jx.Encoder) { e.Str(u.Mobile) })
		})
	})
}
