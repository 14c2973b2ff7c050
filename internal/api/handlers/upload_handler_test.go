package handlers_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"dwellhub/backend/internal/api/handlers"
	"dwellhub/backend/internal/models"
	"dwellhub/backend/internal/services"
)

func setupUploadRouter(store *MockMediaStorage, propertySvc *MockPropertyService, user *models.User) *gin.Engine {
	h := handlers.NewUploadHandler(testConfig(), store, propertySvc, zap.NewNop())
	r := gin.New()
	authed := r.Group("/", asUser(user))
	authed.POST("/upload", h.Upload)
	return r
}

type uploadFile struct {
	name        string
	contentType string
	size        int
}

func multipartUpload(t *testing.T, files []uploadFile, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="images"; filename="%s"`, f.name))
		header.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte("x"), f.size))
		require.NoError(t, err)
	}
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func performUpload(r *gin.Engine, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadHandler_Success(t *testing.T) {
	store := new(MockMediaStorage)
	store.On("Upload", mock.Anything, mock.Anything, "a.jpg", "image/jpeg", int64(10)).
		Return("https://img.example.com/a.jpg", nil)
	store.On("Upload", mock.Anything, mock.Anything, "b.png", "image/png", int64(20)).
		Return("https://img.example.com/b.png", nil)
	r := setupUploadRouter(store, new(MockPropertyService), testUser(models.RoleAgent))

	body, contentType := multipartUpload(t, []uploadFile{
		{name: "a.jpg", contentType: "image/jpeg", size: 10},
		{name: "b.png", contentType: "image/png", size: 20},
	}, nil)
	w := performUpload(r, body, contentType)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeBody(t, w)
	urls := resp["urls"].([]interface{})
	assert.Len(t, urls, 2)
	store.AssertExpectations(t)
}

func TestUploadHandler_AttachToListing(t *testing.T) {
	user := testUser(models.RoleAgent)
	propertyID := primitive.NewObjectID()

	t.Run("Success", func(t *testing.T) {
		store := new(MockMediaStorage)
		store.On("Upload", mock.Anything, mock.Anything, "a.jpg", "image/jpeg", int64(10)).
			Return("https://img.example.com/a.jpg", nil)
		propertySvc := new(MockPropertyService)
		propertySvc.On("AddImages", mock.Anything, propertyID, user.ID, false,
			[]string{"https://img.example.com/a.jpg"}).Return(nil)
		r := setupUploadRouter(store, propertySvc, user)

		body, contentType := multipartUpload(t, []uploadFile{
			{name: "a.jpg", contentType: "image/jpeg", size: 10},
		}, map[string]string{"propertyId": propertyID.Hex()})
		w := performUpload(r, body, contentType)

		assert.Equal(t, http.StatusCreated, w.Code)
		propertySvc.AssertExpectations(t)
	})

	t.Run("NotOwnerRollsBack", func(t *testing.T) {
		store := new(MockMediaStorage)
		store.On("Upload", mock.Anything, mock.Anything, "a.jpg", "image/jpeg", int64(10)).
			Return("https://img.example.com/a.jpg", nil)
		store.On("Delete", mock.Anything, "https://img.example.com/a.jpg").Return(nil)
		propertySvc := new(MockPropertyService)
		propertySvc.On("AddImages", mock.Anything, propertyID, user.ID, false,
			mock.Anything).Return(services.ErrForbidden)
		r := setupUploadRouter(store, propertySvc, user)

		body, contentType := multipartUpload(t, []uploadFile{
			{name: "a.jpg", contentType: "image/jpeg", size: 10},
		}, map[string]string{"propertyId": propertyID.Hex()})
		w := performUpload(r, body, contentType)

		assert.Equal(t, http.StatusForbidden, w.Code)
		store.AssertCalled(t, "Delete", mock.Anything, "https://img.example.com/a.jpg")
	})

	t.Run("BadPropertyID", func(t *testing.T) {
		store := new(MockMediaStorage)
		store.On("Upload", mock.Anything, mock.Anything, "a.jpg", "image/jpeg", int64(10)).
			Return("https://img.example.com/a.jpg", nil)
		store.On("Delete", mock.Anything, "https://img.example.com/a.jpg").Return(nil)
		r := setupUploadRouter(store, new(MockPropertyService), user)

		body, contentType := multipartUpload(t, []uploadFile{
			{name: "a.jpg", contentType: "image/jpeg", size: 10},
		}, map[string]string{"propertyId": "not-hex"})
		w := performUpload(r, body, contentType)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUploadHandler_BatchLimit(t *testing.T) {
	r := setupUploadRouter(new(MockMediaStorage), new(MockPropertyService), testUser(models.RoleAgent))
	files := make([]uploadFile, 6)
	for i := range files {
		files[i] = uploadFile{name: fmt.Sprintf("f%d.jpg", i), contentType: "image/jpeg", size: 10}
	}
	body, contentType := multipartUpload(t, files, nil)
	w := performUpload(r, body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandler_SizeLimit(t *testing.T) {
	r := setupUploadRouter(new(MockMediaStorage), new(MockPropertyService), testUser(models.RoleAgent))
	body, contentType := multipartUpload(t, []uploadFile{
		{name: "huge.jpg", contentType: "image/jpeg", size: 6 << 20},
	}, nil)
	w := performUpload(r, body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandler_UnsupportedType(t *testing.T) {
	store := new(MockMediaStorage)
	r := setupUploadRouter(store, new(MockPropertyService), testUser(models.RoleAgent))
	body, contentType := multipartUpload(t, []uploadFile{
		{name: "script.svg", contentType: "image/svg+xml", size: 10},
	}, nil)
	w := performUpload(r, body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadHandler_NoFiles(t *testing.T) {
	r := setupUploadRouter(new(MockMediaStorage), new(MockPropertyService), testUser(models.RoleAgent))
	body, contentType := multipartUpload(t, nil, nil)
	w := performUpload(r, body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandler_MidBatchFailureRollsBack(t *testing.T) {
	store := new(MockMediaStorage)
	store.On("Upload", mock.Anything, mock.Anything, "ok.jpg", "image/jpeg", int64(10)).
		Return("https://img.example.com/ok.jpg", nil)
	store.On("Upload", mock.Anything, mock.Anything, "fail.jpg", "image/jpeg", int64(10)).
		Return("", assert.AnError)
	store.On("Delete", mock.Anything, "https://img.example.com/ok.jpg").Return(nil)
	r := setupUploadRouter(store, new(MockPropertyService), testUser(models.RoleAgent))

	body, contentType := multipartUpload(t, []uploadFile{
		{name: "ok.jpg", contentType: "image/jpeg", size: 10},
		{name: "fail.jpg", contentType: "image/jpeg", size: 10},
	}, nil)
	w := performUpload(r, body, contentType)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	store.AssertCalled(t, "Delete", mock.Anything, "https://img.example.com/ok.jpg")
}
