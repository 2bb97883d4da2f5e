package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	"github.com/noah-isme/sed-diario-api/internal/models"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type tokenIssuerMock struct {
	resp *dto.TokenResponse
	err  error
	req  dto.TokenRequest
}

func (m *tokenIssuerMock) IssueToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	m.req = req
	return m.resp, m.err
}

type userCreatorMock struct {
	err error
	req dto.CreateUsuarioRequest
}

func (m *userCreatorMock) Create(ctx context.Context, req dto.CreateUsuarioRequest) (*models.Usuario, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Usuario{ID: "u1", Telefone: req.Telefone, Login: req.Login}, nil
}

func TestAuthHandlerToken(t *testing.T) {
	mockSvc := &tokenIssuerMock{resp: &dto.TokenResponse{Sucesso: true, Token: "jwt", ExpiraEm: "1800s", Login: "rg123"}}
	handler := NewAuthHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/token", []byte(`{"telefone":"5511999990000","apiKey":"k"}`))
	handler.Token(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5511999990000", mockSvc.req.Telefone)
	assert.Equal(t, "k", mockSvc.req.APIKey)
	assert.JSONEq(t, `{"sucesso":true,"token":"jwt","expiraEm":"1800s","login":"rg123"}`, w.Body.String())
}

func TestAuthHandlerTokenUnknownPhone(t *testing.T) {
	handler := NewAuthHandler(&tokenIssuerMock{err: appErrors.Clone(appErrors.ErrNotFound, "Usuário não encontrado com este telefone.")})

	c, w := newGinContext(http.MethodPost, "/token", []byte(`{"telefone":"1","apiKey":"k"}`))
	handler.Token(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["sucesso"])
	assert.Equal(t, "Usuário não encontrado com este telefone.", body["mensagem"])
}

func TestAuthHandlerTokenMalformedBody(t *testing.T) {
	mockSvc := &tokenIssuerMock{}
	handler := NewAuthHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/token", []byte(`{"telefone":`))
	handler.Token(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mockSvc.req.Telefone)
}

func TestUserHandlerCreate(t *testing.T) {
	mockSvc := &userCreatorMock{}
	handler := NewUserHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/usuarios", []byte(`{"telefone":"5511","login":"rg123","adminApiKey":"adm"}`))
	handler.Create(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sucesso":true,"mensagem":"Usuário criado com sucesso."}`, w.Body.String())
	assert.Equal(t, "adm", mockSvc.req.AdminAPIKey)
}

func TestUserHandlerCreateRejected(t *testing.T) {
	handler := NewUserHandler(&userCreatorMock{err: appErrors.Clone(appErrors.ErrValidation, "Chave de admin inválida.")})

	c, w := newGinContext(http.MethodPost, "/usuarios", []byte(`{"telefone":"5511","login":"rg123"}`))
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Chave de admin inválida.", decodeBody(t, w)["mensagem"])
}
