package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/example/aimharder-scheduler/internal/domain/reservation"
	"github.com/example/aimharder-scheduler/internal/htmltext"
	"github.com/example/aimharder-scheduler/internal/internaltypes"
	"github.com/example/aimharder-scheduler/internal/logger"
	"github.com/example/aimharder-scheduler/internal/mocks"
	"github.com/example/aimharder-scheduler/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// Monday
var day = time.Date(2026, time.January, 19, 0, 0, 0, 0, time.UTC)

type allMocks struct {
	auth     *mocks.MockAuthenticator
	session  *mocks.MockSession
	notifier *mocks.MockNotifier
}

func newSchedulerTestMock(t *testing.T) (*Scheduler, allMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := allMocks{
		auth:     mocks.NewMockAuthenticator(ctrl),
		session:  mocks.NewMockSession(ctrl),
		notifier: mocks.NewMockNotifier(ctrl),
	}
	s := &Scheduler{
		Auth:          m.auth,
		Notifier:      m.notifier,
		Creds:         reservation.Credentials{Email: "me@example.com", Password: "pw"},
		HTML:          htmltext.Parser{},
		Log:           logger.Nop(),
		NotifyOnError: true,
	}
	return s, m
}

func box(name string, id int) schedule.Box {
	return schedule.Box{ID: id, Name: name, Days: map[time.Weekday]reservation.ClassRequest{
		time.Monday: {Time: "18:30", ClassName: "CrossFit"},
	}}
}

func catalog(booked bool) []reservation.Record {
	return []reservation.Record{
		{"timeid": "1730_60", "className": "CrossFit", "id": json.Number("1")},
		{"timeid": "1830_60", "className": "CrossFit WOD", "booked": booked, "id": json.Number("123456")},
	}
}

func TestBookHappyPath(t *testing.T) {
	s, m := newSchedulerTestMock(t)
	b := box("mybox", 10002)

	m.auth.EXPECT().Login(gomock.Any(), s.Creds, b.Ref()).Return(m.session, nil)
	m.session.EXPECT().Classes(gomock.Any(), day).Return(catalog(false), nil)
	m.session.EXPECT().Book(gomock.Any(), "123456", day).Return(http.StatusOK, []byte(`{"bookState":1}`), nil)
	m.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, text string) error {
		assert.Contains(t, text, "Reserva confirmada")
		assert.Contains(t, text, "CrossFit WOD")
		assert.Contains(t, text, "LUNES 19 ENE · 18:30")
		assert.Contains(t, text, "mybox")
		return nil
	})

	rep := s.Book(context.Background(), []schedule.Box{b}, day)
	require.Len(t, rep.Results, 1)
	require.NotNil(t, rep.Results[0].Outcome)
	assert.Equal(t, reservation.Success, rep.Results[0].Outcome.Kind)
	assert.Equal(t, 0, rep.Failed())
	assert.False(t, rep.AllFailed())
}

func TestBookAlreadyBookedSkipsBooking(t *testing.T) {
	s, m := newSchedulerTestMock(t)
	b := box("mybox", 10002)

	m.auth.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(m.session, nil)
	m.session.EXPECT().Classes(gomock.Any(), day).Return(catalog(true), nil)
	m.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, text string) error {
		assert.Contains(t, text, "Ya estabas apuntado")
		return nil
	})

	rep := s.Book(context.Background(), []schedule.Box{b}, day)
	assert.Equal(t, reservation.AlreadyBooked, rep.Results[0].Outcome.Kind)
	assert.False(t, rep.Results[0].Failed())
}

func TestBookDryRunWithWorkout(t *testing.T) {
	s, m := newSchedulerTestMock(t)
	s.DryRun = true
	s.WithWOD = true

	m.auth.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(m.session, nil)
	m.session.EXPECT().Classes(gomock.Any(), day).Return(catalog(false), nil)
	m.session.EXPECT().Dashboard(gomock.Any()).Return(`userID: 9`, nil)
	m.session.EXPECT().Activity(gomock.Any(), "9", 7).Return([]byte(`{"elements":[{"day":"19 Ene","wodClass":"CrossFit","desc":"21-15-9"}]}`), nil)
	m.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, text string) error {
		assert.True(t, strings.HasPrefix(text, "🔵 <b>SIMULACIÓN</b>"))
		assert.Contains(t, text, "🏋️ <b>CROSSFIT</b>\n21-15-9")
		return nil
	})

	rep := s.Book(context.Background(), []schedule.Box{box("mybox", 1)}, day)
	assert.True(t, rep.Results[0].Outcome.Simulated)
}

func TestBookFailuresContinueWithNextBox(t *testing.T) {
	s, m := newSchedulerTestMock(t)
	broken, noMatch, rejected := box("broken", 1), box("nomatch", 2), box("rejected", 3)
	idle := schedule.Box{ID: 4, Name: "idle", Days: map[time.Weekday]reservation.ClassRequest{}}

	var sent []string
	m.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, text string) error {
		sent = append(sent, text)
		return nil
	}).Times(3)

	gomock.InOrder(
		m.auth.EXPECT().Login(gomock.Any(), gomock.Any(), broken.Ref()).Return(nil, fmt.Errorf("%w: bad password", internaltypes.ErrAuth)),
		m.auth.EXPECT().Login(gomock.Any(), gomock.Any(), noMatch.Ref()).Return(m.session, nil),
		m.auth.EXPECT().Login(gomock.Any(), gomock.Any(), rejected.Ref()).Return(m.session, nil),
	)
	gomock.InOrder(
		m.session.EXPECT().Classes(gomock.Any(), day).Return([]reservation.Record{{"timeid": "0700_60", "className": "Yoga"}}, nil),
		m.session.EXPECT().Classes(gomock.Any(), day).Return(catalog(false), nil),
	)
	m.session.EXPECT().Book(gomock.Any(), "123456", day).Return(http.StatusOK, []byte(`{"bookState":-2}`), nil)

	rep := s.Book(context.Background(), []schedule.Box{broken, noMatch, idle, rejected}, day)
	require.Len(t, rep.Results, 4)
	assert.ErrorIs(t, rep.Results[0].Err, internaltypes.ErrAuth)
	assert.ErrorIs(t, rep.Results[1].Err, internaltypes.ErrNotFound)
	assert.True(t, rep.Results[2].Skipped)
	assert.Equal(t, reservation.NoCredit, rep.Results[3].Outcome.Kind)
	assert.Equal(t, 3, rep.Failed())
	assert.True(t, rep.AllFailed())

	require.Len(t, sent, 3)
	assert.Contains(t, sent[0], "login fallido")
	assert.Contains(t, sent[1], "clase no encontrada")
	assert.Contains(t, sent[2], "sin créditos disponibles")
}

func TestDigestSendsChunks(t *testing.T) {
	s, m := newSchedulerTestMock(t)
	b := box("mybox", 1)

	m.auth.EXPECT().Login(gomock.Any(), gomock.Any(), b.Ref()).Return(m.session, nil)
	m.session.EXPECT().Dashboard(gomock.Any()).Return(`userID: 5`, nil)
	m.session.EXPECT().Activity(gomock.Any(), "5", 100).Return([]byte(`{"elements":[
		{"day":"20 Ene","wodClass":"CrossFit","userName":"My Box","desc":"Run 5k"}]}`), nil)
	m.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, text string) error {
		assert.Contains(t, text, "AGENDA DE ENTRENAMIENTOS - mybox")
		assert.Contains(t, text, "• MARTES 20 ENE")
		return nil
	})

	rep := s.Digest(context.Background(), []schedule.Box{b}, []time.Time{day.AddDate(0, 0, 1)}, "")
	assert.Equal(t, 0, rep.Failed())
}

func TestDigestFailureSendsNotice(t *testing.T) {
	s, m := newSchedulerTestMock(t)
	b := box("mybox", 1)

	m.auth.EXPECT().Login(gomock.Any(), gomock.Any(), b.Ref()).Return(m.session, nil)
	m.session.EXPECT().Dashboard(gomock.Any()).Return(`<html></html>`, nil)
	m.notifier.EXPECT().Send(gomock.Any(), "ℹ️ No hay entrenamientos publicados en <b>mybox</b> para los próximos 2 días.").Return(nil)

	rep := s.Digest(context.Background(), []schedule.Box{b}, []time.Time{day, day.AddDate(0, 0, 1)}, "")
	assert.ErrorIs(t, rep.Results[0].Err, internaltypes.ErrUserIDNotFound)
	assert.True(t, rep.AllFailed())

	s.NotifyOnError = false
	m.auth.EXPECT().Login(gomock.Any(), gomock.Any(), b.Ref()).Return(m.session, nil)
	m.session.EXPECT().Dashboard(gomock.Any()).Return(`<html></html>`, nil)
	rep = s.Digest(context.Background(), []schedule.Box{b}, []time.Time{day}, "")
	assert.Error(t, rep.Results[0].Err)
}

func TestBookStopsOnCancelledContext(t *testing.T) {
	s, _ := newSchedulerTestMock(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := s.Book(ctx, []schedule.Box{box("a", 1), box("b", 2)}, day)
	require.Len(t, rep.Results, 2)
	for _, r := range rep.Results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
