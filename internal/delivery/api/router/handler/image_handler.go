package handler

import (
	"io"
	"net/http"
	"strings"

	"foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/response"
	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"
	"foodbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const photoField = "photo"

// ImageHandlerParams holds dependencies for ImageHandler, injected by Fx.
type ImageHandlerParams struct {
	fx.In

	ImageUC   usecase.ImageUsecase
	Processor service.ImageProcessor
}

// ImageHandler serves photo uploads, their bytes and assessments.
type ImageHandler struct {
	imageUC   usecase.ImageUsecase
	processor service.ImageProcessor
}

// NewImageHandler is the constructor for ImageHandler.
func NewImageHandler(params ImageHandlerParams) *ImageHandler {
	return &ImageHandler{
		imageUC:   params.ImageUC,
		processor: params.Processor,
	}
}

// PhotoRequest carries a photo as a data URL when the client does not send
// multipart form data.
type PhotoRequest struct {
	Image        string `json:"image" form:"image"`
	Type         string `json:"type" form:"type"`
	AssociatedID string `json:"associatedId" form:"associatedId"`
	FoodType     string `json:"foodType" form:"foodType"`
}

// UpdateImageRequest carries the editable image metadata.
type UpdateImageRequest struct {
	OriginalFilename *string `json:"originalFilename" validate:"omitempty,min=1,max=255"`
}

// AssessImageRequest names the food shown in a stored image.
type AssessImageRequest struct {
	FoodType string `json:"foodType"`
}

// readPhoto takes the photo from a multipart "photo" file or a data URL in
// the body. req receives the remaining fields either way.
func readPhoto(c echo.Context, processor service.ImageProcessor, req *PhotoRequest) (*usecase.Photo, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		if err := c.Bind(req); err != nil {
			return nil, domainerrors.ErrValidationFailed.WithDetails("malformed form data")
		}

		file, err := c.FormFile(photoField)
		if err != nil {
			return nil, domainerrors.ErrInvalidImage.WithDetails("photo file is required")
		}

		src, err := file.Open()
		if err != nil {
			return nil, errors.Wrap(err, "failed to open uploaded photo")
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read uploaded photo")
		}

		return &usecase.Photo{
			Data:        data,
			ContentType: file.Header.Get(echo.HeaderContentType),
			Filename:    file.Filename,
		}, nil
	}

	if err := c.Bind(req); err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("malformed request body")
	}
	if req.Image == "" {
		return nil, domainerrors.ErrInvalidImage.WithDetails("image is required")
	}

	data, mimeType, err := processor.DecodeDataURL(req.Image)
	if err != nil {
		return nil, domainerrors.ErrInvalidImage.WithDetails(err.Error())
	}

	return &usecase.Photo{Data: data, ContentType: mimeType}, nil
}

// Upload stores a photo for a donation or a verification.
func (h *ImageHandler) Upload(c echo.Context) error {
	var req PhotoRequest
	photo, err := readPhoto(c, h.processor, &req)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	record, err := h.imageUC.Upload(c.Request().Context(), middleware.MustActor(c), &usecase.ImageUpload{
		Photo:        *photo,
		Type:         entity.ImageType(req.Type),
		AssociatedID: req.AssociatedID,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, record)
}

// ListImages lists images by ?associatedId= or ?type=.
func (h *ImageHandler) ListImages(c echo.Context) error {
	var (
		images []*entity.ImageRecord
		err    error
	)

	switch {
	case c.QueryParam("associatedId") != "":
		images, err = h.imageUC.ListByAssociation(c.Request().Context(), c.QueryParam("associatedId"))
	case c.QueryParam("type") != "":
		images, err = h.imageUC.ListByType(c.Request().Context(), entity.ImageType(c.QueryParam("type")))
	default:
		return response.HandleAppError(c, domainerrors.ErrValidationFailed.WithDetails("associatedId or type is required"))
	}
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, images)
}

// GetImage returns an image record.
func (h *ImageHandler) GetImage(c echo.Context) error {
	record, err := h.imageUC.GetImage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, record)
}

// Content streams the image bytes.
func (h *ImageHandler) Content(c echo.Context) error {
	return h.blob(c, false)
}

// Thumbnail streams the thumbnail bytes.
func (h *ImageHandler) Thumbnail(c echo.Context) error {
	return h.blob(c, true)
}

func (h *ImageHandler) blob(c echo.Context, thumbnail bool) error {
	data, contentType, err := h.imageUC.Content(c.Request().Context(), c.Param("id"), thumbnail)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	c.Response().Header().Set("Cache-Control", "private, max-age=3600")

	return c.Blob(http.StatusOK, contentType, data)
}

// UpdateMetadata edits the metadata of the caller's image.
func (h *ImageHandler) UpdateMetadata(c echo.Context) error {
	var req UpdateImageRequest
	if err := bind(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}

	record, err := h.imageUC.UpdateMetadata(c.Request().Context(), middleware.MustActor(c), c.Param("id"),
		&usecase.ImageMetadataUpdate{OriginalFilename: req.OriginalFilename})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, record)
}

// Assess runs a freshness check on a stored image.
func (h *ImageHandler) Assess(c echo.Context) error {
	var req AssessImageRequest
	if err := bind(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}

	record, assessment, err := h.imageUC.Assess(c.Request().Context(), c.Param("id"), req.FoodType)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"image":      record,
		"assessment": assessment,
	})
}

// DeleteImage removes the caller's image.
func (h *ImageHandler) DeleteImage(c echo.Context) error {
	if err := h.imageUC.DeleteImage(c.Request().Context(), middleware.MustActor(c), c.Param("id")); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
