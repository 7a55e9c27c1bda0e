package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bitshare/bitshare-api/internal/media"
	"github.com/bitshare/bitshare-api/internal/service"
	"github.com/bitshare/bitshare-api/internal/util"
)

type StorageHandler struct {
	storage *service.StorageService
}

func RegisterStorage(e *echo.Echo, auth *service.AuthService, storage *service.StorageService) {
	handler := &StorageHandler{storage: storage}

	e.GET("/generatepostobjecturl", handler.generatePostObjectURL, RequireAuth(auth))
	e.GET("/gets3urlbykey/:key", handler.getURLByKey, RequireAuth(auth))
	e.POST("/uploadprofilepic", handler.uploadProfilePic, RequireAuth(auth))
}

// generatePostObjectURL godoc
// @Summary Issue a pre-signed PUT URL for profile media
// @Produce json
// @Router /generatepostobjecturl [get]
func (h *StorageHandler) generatePostObjectURL(c echo.Context) error {
	signedURL, key, err := h.storage.PresignUpload(c.Request().Context())
	if err != nil {
		return h.writeStorageError(c, err)
	}
	return c.JSON(http.StatusOK, util.Success(http.StatusOK, "upload url generated", echo.Map{
		"signedUrl": signedURL,
		"filekey":   key,
	}))
}

// getURLByKey godoc
// @Summary Issue a pre-signed GET URL for a stored object
// @Produce json
// @Router /gets3urlbykey/{key} [get]
func (h *StorageHandler) getURLByKey(c echo.Context) error {
	signedURL, err := h.storage.PresignDownload(c.Request().Context(), c.Param("key"))
	if err != nil {
		return h.writeStorageError(c, err)
	}
	return c.JSON(http.StatusOK, util.Success(http.StatusOK, "signed url generated", echo.Map{
		"signedUrl": signedURL,
	}))
}

// uploadProfilePic godoc
// @Summary Upload and attach a profile picture
// @Accept mpfd
// @Produce json
// @Router /uploadprofilepic [post]
func (h *StorageHandler) uploadProfilePic(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Failure(http.StatusUnauthorized, "authentication required"))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, "file is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, "unable to read file"))
	}
	defer file.Close()

	key, err := h.storage.UploadProfilePic(c.Request().Context(), user.ID, media.Upload{
		Reader:      file,
		Size:        fileHeader.Size,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
	})
	if err != nil {
		return h.writeStorageError(c, err)
	}
	return c.JSON(http.StatusOK, util.Success(http.StatusOK, "profile picture updated", echo.Map{
		"profilePic": key,
	}))
}

func (h *StorageHandler) writeStorageError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrObjectKeyRequired) {
		return c.JSON(http.StatusBadRequest, util.Failure(http.StatusBadRequest, err.Error()))
	}
	c.Logger().Errorf("storage: %v", err)
	return c.JSON(http.StatusInternalServerError, util.Failure(http.StatusInternalServerError, "internal server error"))
}
