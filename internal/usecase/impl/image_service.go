package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"
	"foodbridge/internal/usecase"
	"foodbridge/internal/util"

	"go.uber.org/fx"
)

const (
	imageBlobPrefix     = "images/"
	thumbnailBlobPrefix = "thumbnails/"
	imageURLPrefix      = "/api/v1/images/"
)

type imageService struct {
	imageRepo repository.ImageRepository
	blobs     service.BlobStorage
	processor service.ImageProcessor
	assessor  service.FreshnessAssessor
	now       util.Clock
	logger    *slog.Logger
}

// ImageServiceParams holds dependencies for ImageService, injected by Fx.
type ImageServiceParams struct {
	fx.In

	ImageRepo repository.ImageRepository
	Blobs     service.BlobStorage
	Processor service.ImageProcessor
	Assessor  service.FreshnessAssessor
	Clock     util.Clock
	Logger    *slog.Logger
}

// NewImageService creates a new image service instance
func NewImageService(params ImageServiceParams) usecase.ImageUsecase {
	clock := params.Clock
	if clock == nil {
		clock = util.SystemClock()
	}

	return &imageService{
		imageRepo: params.ImageRepo,
		blobs:     params.Blobs,
		processor: params.Processor,
		assessor:  params.Assessor,
		now:       clock,
		logger:    params.Logger,
	}
}

func (srv *imageService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Upload stores the bytes and a thumbnail in blob storage and the record in
// the store. A failed thumbnail only leaves the record without one.
func (srv *imageService) Upload(ctx context.Context, actor entity.Actor, upload *usecase.ImageUpload) (*entity.ImageRecord, error) {
	if actor.UserID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	if upload == nil || len(upload.Data) == 0 {
		return nil, domainerrors.ErrInvalidImage.WithDetails("empty upload")
	}
	if upload.Type != entity.ImageDonation && upload.Type != entity.ImageVerification {
		return nil, validationFailed("unknown image type %q", upload.Type)
	}
	if upload.AssociatedID == "" {
		return nil, validationFailed("the image must be associated with a donation or collection")
	}

	width, height, format, err := srv.processor.Inspect(upload.Data)
	if err != nil {
		return nil, domainerrors.ErrInvalidImage.WithDetails(err.Error())
	}

	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "image/" + format
	}

	now := srv.now()
	id := util.NewID(util.PrefixImage, now)
	record := &entity.ImageRecord{
		ID:           id,
		URL:          imageURLPrefix + id + "/content",
		BlobKey:      imageBlobPrefix + id,
		ContentType:  contentType,
		UploadedAt:   now,
		UploadedBy:   actor.UserID,
		Type:         upload.Type,
		AssociatedID: upload.AssociatedID,
		Metadata: &entity.ImageMetadata{
			OriginalFilename: upload.Filename,
			FileSize:         int64(len(upload.Data)),
			Width:            width,
			Height:           height,
		},
	}

	if err := srv.blobs.Put(ctx, record.BlobKey, upload.Data, contentType); err != nil {
		return nil, errors.Wrap(err, "failed to store image bytes")
	}

	srv.storeThumbnail(ctx, record, upload.Data)

	if err := srv.imageRepo.Add(ctx, record); err != nil {
		srv.removeBlobs(ctx, record)

		return nil, mapRepoError(err, "store image record")
	}

	srv.log(ctx).Info("Image uploaded",
		slog.String("imageID", record.ID),
		slog.String("type", string(record.Type)),
		slog.String("size", util.FormatBytes(record.Metadata.FileSize)))

	return record, nil
}

func (srv *imageService) storeThumbnail(ctx context.Context, record *entity.ImageRecord, data []byte) {
	thumb, err := srv.processor.Thumbnail(data)
	if err != nil {
		srv.log(ctx).Warn("Failed to render thumbnail", slog.String("imageID", record.ID), slog.Any("error", err))

		return
	}

	key := thumbnailBlobPrefix + record.ID + ".jpg"
	if err := srv.blobs.Put(ctx, key, thumb, "image/jpeg"); err != nil {
		srv.log(ctx).Warn("Failed to store thumbnail", slog.String("imageID", record.ID), slog.Any("error", err))

		return
	}

	record.ThumbnailKey = key
	record.ThumbnailURL = imageURLPrefix + record.ID + "/thumbnail"
}

func (srv *imageService) removeBlobs(ctx context.Context, record *entity.ImageRecord) {
	keys := []string{record.BlobKey}
	if record.ThumbnailKey != "" {
		keys = append(keys, record.ThumbnailKey)
	}

	for _, key := range keys {
		if err := srv.blobs.Delete(ctx, key); err != nil {
			srv.log(ctx).Warn("Failed to delete blob", slog.String("key", key), slog.Any("error", err))
		}
	}
}

func (srv *imageService) UploadDataURL(
	ctx context.Context,
	actor entity.Actor,
	dataURL string,
	imageType entity.ImageType,
	associatedID string,
) (*entity.ImageRecord, error) {
	data, mimeType, err := srv.processor.DecodeDataURL(dataURL)
	if err != nil {
		return nil, domainerrors.ErrInvalidImage.WithDetails(err.Error())
	}

	return srv.Upload(ctx, actor, &usecase.ImageUpload{
		Photo:        usecase.Photo{Data: data, ContentType: mimeType},
		Type:         imageType,
		AssociatedID: associatedID,
	})
}

func (srv *imageService) GetImage(ctx context.Context, imageID string) (*entity.ImageRecord, error) {
	record, err := srv.imageRepo.GetByID(ctx, imageID)
	if err != nil {
		return nil, mapRepoError(err, "find image")
	}

	return record, nil
}

func (srv *imageService) Content(ctx context.Context, imageID string, thumbnail bool) ([]byte, string, error) {
	record, err := srv.GetImage(ctx, imageID)
	if err != nil {
		return nil, "", err
	}

	key := record.BlobKey
	if thumbnail && record.ThumbnailKey != "" {
		key = record.ThumbnailKey
	}

	data, contentType, err := srv.blobs.Get(ctx, key)
	if err != nil {
		return nil, "", domainerrors.ErrImageNotFound.WithDetails(err.Error())
	}
	if contentType == "" {
		contentType = record.ContentType
	}

	return data, contentType, nil
}

func (srv *imageService) ListByAssociation(ctx context.Context, associatedID string) ([]*entity.ImageRecord, error) {
	records, err := srv.imageRepo.GetByAssociatedID(ctx, associatedID)
	if err != nil {
		return nil, mapRepoError(err, "list images")
	}

	return records, nil
}

func (srv *imageService) ListByType(ctx context.Context, imageType entity.ImageType) ([]*entity.ImageRecord, error) {
	records, err := srv.imageRepo.GetByType(ctx, imageType)
	if err != nil {
		return nil, mapRepoError(err, "list images")
	}

	return records, nil
}

func (srv *imageService) owned(ctx context.Context, actor entity.Actor, imageID string) (*entity.ImageRecord, error) {
	record, err := srv.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if record.UploadedBy != actor.UserID && !actor.IsAdmin() {
		return nil, domainerrors.ErrForbidden.WithDetails("image was uploaded by another user")
	}

	return record, nil
}

func (srv *imageService) UpdateMetadata(
	ctx context.Context,
	actor entity.Actor,
	imageID string,
	update *usecase.ImageMetadataUpdate,
) (*entity.ImageRecord, error) {
	record, err := srv.owned(ctx, actor, imageID)
	if err != nil {
		return nil, err
	}
	if update == nil {
		return record, nil
	}

	if record.Metadata == nil {
		record.Metadata = &entity.ImageMetadata{}
	}
	if update.OriginalFilename != nil {
		record.Metadata.OriginalFilename = *update.OriginalFilename
	}

	if err := srv.imageRepo.Update(ctx, record); err != nil {
		return nil, mapRepoError(err, "update image")
	}

	return record, nil
}

func (srv *imageService) Assess(ctx context.Context, imageID, foodType string) (*entity.ImageRecord, *entity.Assessment, error) {
	record, err := srv.GetImage(ctx, imageID)
	if err != nil {
		return nil, nil, err
	}

	data, _, err := srv.blobs.Get(ctx, record.BlobKey)
	if err != nil {
		return nil, nil, domainerrors.ErrImageNotFound.WithDetails(err.Error())
	}

	started := time.Now()
	assessment, err := srv.assessor.Assess(ctx, data, record.ContentType, foodType)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to assess image")
	}

	srv.log(ctx).Debug("Image assessed",
		slog.String("imageID", imageID),
		slog.String("source", assessment.Source),
		slog.String("took", util.FormatDuration(time.Since(started))))

	if record.Metadata == nil {
		record.Metadata = &entity.ImageMetadata{}
	}
	record.Metadata.MLAssessment = &entity.MLAssessment{
		Condition:  assessment.Condition,
		Confidence: assessment.Confidence,
		FoodType:   assessment.FoodType,
		AssessedAt: srv.now(),
	}

	if err := srv.imageRepo.Update(ctx, record); err != nil {
		return nil, nil, mapRepoError(err, "store assessment")
	}

	return record, assessment, nil
}

func (srv *imageService) DeleteImage(ctx context.Context, actor entity.Actor, imageID string) error {
	record, err := srv.owned(ctx, actor, imageID)
	if err != nil {
		return err
	}

	if err := srv.imageRepo.Delete(ctx, imageID); err != nil {
		return mapRepoError(err, "delete image")
	}
	srv.removeBlobs(ctx, record)

	return nil
}
