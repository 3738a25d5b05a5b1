package screens

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/grownby/internal/auth"
	"github.com/stwalsh4118/grownby/internal/backend/memory"
	"github.com/stwalsh4118/grownby/internal/farms"
	"github.com/stwalsh4118/grownby/internal/forms"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/media"
	"github.com/stwalsh4118/grownby/internal/session"
)

// pngHeader is enough of a PNG for MIME sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// app is every dependency of the screens, wired over the memory backend.
type app struct {
	backend  *memory.Backend
	kv       *memory.KeyValue
	sessions *session.Store
	gateway  *auth.Gateway
	farms    *farms.Repository
	fs       afero.Fs
	uploader *media.Uploader
	picker   *media.Picker
	forms    *forms.Validator
}

func newApp(t *testing.T) *app {
	t.Helper()
	b := memory.New()
	t.Cleanup(b.Close)
	kv := memory.NewKeyValue()
	sessions := session.NewStore(kv, logger.Nop())
	fs := afero.NewMemMapFs()
	v, err := forms.NewValidator()
	require.NoError(t, err)
	return &app{
		backend:  b,
		kv:       kv,
		sessions: sessions,
		gateway:  auth.NewGateway(b, sessions, logger.Nop()),
		farms:    farms.NewRepository(b, logger.Nop()),
		fs:       fs,
		uploader: media.NewUploader(fs, b, logger.Nop()),
		picker:   media.NewPicker(fs),
		forms:    v,
	}
}

func (a *app) login() *Login {
	return NewLogin(a.gateway, a.sessions, a.forms, logger.Nop())
}

func (a *app) signUp() *SignUp {
	return NewSignUp(a.gateway, a.sessions, a.forms, logger.Nop())
}

func (a *app) addFarm() *AddFarm {
	return NewAddFarm(a.farms, a.uploader, a.picker, a.forms, logger.Nop())
}

func (a *app) farmList() *FarmList {
	return NewFarmList(a.farms, a.gateway, logger.Nop())
}
