package server

import (
	"net/http"

	"github.com/gorilla/securecookie"
)

const cookieFlash = "voidpanel_flash"

// Flash categories map to CSS classes.
const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashDanger  = "danger"
)

// maxFlashes caps the cookie so it stays well under browser limits.
const maxFlashes = 5

type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// flasher carries one-shot messages across a redirect in a signed cookie.
type flasher struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func newFlasher(hashKey, blockKey []byte, secure bool) *flasher {
	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(300)
	return &flasher{codec: sc, secure: secure}
}

func (f *flasher) read(r *http.Request) []Flash {
	ck, err := r.Cookie(cookieFlash)
	if err != nil || ck.Value == "" {
		return nil
	}
	var out []Flash
	if err := f.codec.Decode(cookieFlash, ck.Value, &out); err != nil {
		return nil
	}
	return out
}

// add queues msg for the next rendered page, keeping messages already
// pending on the request.
func (f *flasher) add(w http.ResponseWriter, r *http.Request, category, msg string) {
	list := append(f.read(r), Flash{Category: category, Message: msg})
	if len(list) > maxFlashes {
		list = list[len(list)-maxFlashes:]
	}
	val, err := f.codec.Encode(cookieFlash, list)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieFlash,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// pop returns pending messages and clears the cookie.
func (f *flasher) pop(w http.ResponseWriter, r *http.Request) []Flash {
	list := f.read(r)
	if _, err := r.Cookie(cookieFlash); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieFlash,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   f.secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
	return list
}
