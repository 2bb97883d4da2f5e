package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	"github.com/noah-isme/sed-diario-api/internal/portal"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
)

type markerStub struct {
	err    error
	date   time.Time
	absent []int
	calls  int
}

func (m *markerStub) Mark(ctx context.Context, page portal.Page, date time.Time, absent []int) error {
	m.calls++
	m.date = date
	m.absent = absent
	return m.err
}

const testAttendanceURL = "https://frequencia.sed.test/"

func TestAttendanceServiceMark(t *testing.T) {
	opener := newOpenerStub()
	marker := &markerStub{}
	svc := NewAttendanceService(opener, marker, newLockStub(), testAttendanceURL, nil, nil)

	err := svc.Mark(context.Background(), "rg123", dto.FrequenciaRequest{Data: "17/03/2025", AlunosComFalta: "[3, 1, 3]", Senha: "s3nha"})
	require.NoError(t, err)
	assert.Equal(t, testAttendanceURL, opener.entry)
	assert.Equal(t, []int{3, 1}, marker.absent)
	assert.Equal(t, 17, marker.date.Day())
	assert.Equal(t, time.March, marker.date.Month())
	assert.True(t, opener.page.Closed())
}

func TestAttendanceServiceNoTimeSlot(t *testing.T) {
	marker := &markerStub{err: portal.ErrNoTimeSlot}
	svc := NewAttendanceService(newOpenerStub(), marker, nil, testAttendanceURL, nil, nil)

	err := svc.Mark(context.Background(), "rg123", dto.FrequenciaRequest{Data: "17/03/2025", AlunosComFalta: "[1]", Senha: "s3nha"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Nenhum horário de aula encontrado para a data informada.", appErr.Message)
}

func TestAttendanceServiceRejectsMalformedInput(t *testing.T) {
	cases := map[string]dto.FrequenciaRequest{
		"bad date":    {Data: "2025-03-17", AlunosComFalta: "[1]", Senha: "x"},
		"not json":    {Data: "17/03/2025", AlunosComFalta: "1,2", Senha: "x"},
		"zero row":    {Data: "17/03/2025", AlunosComFalta: "[0]", Senha: "x"},
		"strings":     {Data: "17/03/2025", AlunosComFalta: `["a"]`, Senha: "x"},
		"no absences": {Data: "17/03/2025", Senha: "x"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			marker := &markerStub{}
			svc := NewAttendanceService(newOpenerStub(), marker, nil, testAttendanceURL, nil, nil)

			err := svc.Mark(context.Background(), "rg123", req)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
			assert.Zero(t, marker.calls)
		})
	}
}

func TestParseAbsentList(t *testing.T) {
	rows, err := ParseAbsentList("[]")
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = ParseAbsentList("[2,5]")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, rows)

	_, err = ParseAbsentList("[-1]")
	assert.Error(t, err)
}
