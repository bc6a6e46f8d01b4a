package whatsapp

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"localvibe/internal/identity"
	"localvibe/internal/kvstore"
	"localvibe/internal/reservations"
)

type fakeOpener struct {
	canOpen bool
	openErr error
	opened  []string
}

func (f *fakeOpener) CanOpen(string) bool { return f.canOpen }

func (f *fakeOpener) Open(uri string) error {
	f.opened = append(f.opened, uri)
	return f.openErr
}

func newHandoff(t *testing.T, opener Opener, backend kvstore.Backend) (*Handoff, *reservations.Log) {
	t.Helper()
	log, err := reservations.New(backend, nil)
	require.NoError(t, err)
	h, err := NewHandoff(opener, log, nil)
	require.NoError(t, err)
	return h, log
}

func TestBuildMessage_EncodesText(t *testing.T) {
	encoded := BuildMessage(MessageOptions{LocationName: "The Old Inn", Address: "Piața Unirii, Nr. 4"})
	decoded, err := url.QueryUnescape(encoded)
	require.NoError(t, err)
	require.Equal(t, "Bună! Aș dori să fac o rezervare la The Old Inn (Piața Unirii, Nr. 4). Vă rog să mă contactați pentru detalii. Mulțumesc!", decoded)
	require.NotContains(t, encoded, " ")
}

func TestBuildMessage_WithoutAddress(t *testing.T) {
	encoded := BuildMessage(MessageOptions{LocationName: "Citadel"})
	decoded, err := url.QueryUnescape(encoded)
	require.NoError(t, err)
	require.NotContains(t, decoded, "(")
}

func TestChatAndWebURLs(t *testing.T) {
	require.Equal(t, "whatsapp://send?phone=+40723456789&text=msg", ChatURL("msg"))
	require.Equal(t, "https://wa.me/40723456789?text=msg", WebURL("msg"))
}

func TestOpenChat_PrefersAppLink(t *testing.T) {
	opener := &fakeOpener{canOpen: true}
	backend := kvstore.NewMemory()
	h, log := newHandoff(t, opener, backend)
	ctx := context.Background()

	err := h.OpenChat(ctx, identity.Guest, MessageOptions{LocationID: "2", LocationName: "The Old Inn"})
	require.NoError(t, err)
	require.Len(t, opener.opened, 1)
	require.True(t, strings.HasPrefix(opener.opened[0], "whatsapp://"))

	records := log.List(ctx, identity.Guest)
	require.Len(t, records, 1)
	require.Equal(t, "2", records[0].LocationID)
	require.Equal(t, "The Old Inn", records[0].LocationName)
	require.Positive(t, records[0].Timestamp)
}

func TestOpenChat_FallsBackToWebURI(t *testing.T) {
	opener := &fakeOpener{canOpen: false}
	h, log := newHandoff(t, opener, kvstore.NewMemory())
	ctx := context.Background()

	err := h.OpenChat(ctx, identity.Authenticated("u1"), MessageOptions{LocationID: "5", LocationName: "X"})
	require.NoError(t, err)
	require.Len(t, opener.opened, 1)
	require.True(t, strings.HasPrefix(opener.opened[0], "https://wa.me/"))

	require.Len(t, log.List(ctx, identity.Authenticated("u1")), 1)
}

func TestOpenChat_DispatchFailureSkipsReservation(t *testing.T) {
	opener := &fakeOpener{canOpen: true, openErr: errors.New("no handler")}
	h, log := newHandoff(t, opener, kvstore.NewMemory())
	ctx := context.Background()

	err := h.OpenChat(ctx, identity.Guest, MessageOptions{LocationID: "2", LocationName: "X"})
	require.Error(t, err)
	require.Empty(t, log.List(ctx, identity.Guest))
}

func TestOpenChat_NoLocationIDSkipsReservation(t *testing.T) {
	opener := &fakeOpener{canOpen: true}
	h, log := newHandoff(t, opener, kvstore.NewMemory())
	ctx := context.Background()

	require.NoError(t, h.OpenChat(ctx, identity.Guest, MessageOptions{LocationName: "X"}))
	require.Empty(t, log.List(ctx, identity.Guest))
}
