package kv

import (
	"context"

	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/infra/kvstore"
	"foodbridge/internal/util"
)

type imageRepository struct {
	session kvstore.Session
	now     Clock
}

func NewImageRepository(session kvstore.Session, clock Clock) repository.ImageRepository {
	return &imageRepository{session: session, now: orNow(clock)}
}

func (repo *imageRepository) load(ctx context.Context, s kvstore.Session) ([]imageRecord, error) {
	return loadList[imageRecord](ctx, s, constants.KeyImages)
}

func (repo *imageRepository) GetAll(ctx context.Context) ([]*entity.ImageRecord, error) {
	return repo.filter(ctx, func(*entity.ImageRecord) bool { return true })
}

func (repo *imageRepository) GetByID(ctx context.Context, id string) (*entity.ImageRecord, error) {
	list, err := repo.load(ctx, repo.session)
	if err != nil {
		return nil, err
	}

	idx := indexOf(list, id)
	if idx < 0 {
		return nil, repository.ErrImageNotFound
	}

	return cloneImage(list[idx].ImageRecord), nil
}

func (repo *imageRepository) Add(ctx context.Context, image *entity.ImageRecord) error {
	if image.ID == "" {
		image.ID = util.NewID(util.PrefixImage, repo.now())
	}
	if image.UploadedAt.IsZero() {
		image.UploadedAt = repo.now()
	}

	return atomic(ctx, repo.session, func(s kvstore.Session) error {
		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		return saveList(ctx, s, constants.KeyImages, append(list, imageRecord{cloneImage(image)}))
	})
}

func (repo *imageRepository) Update(ctx context.Context, image *entity.ImageRecord) error {
	return atomic(ctx, repo.session, func(s kvstore.Session) error {
		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		idx := indexOf(list, image.ID)
		if idx < 0 {
			return repository.ErrImageNotFound
		}
		list[idx] = imageRecord{cloneImage(image)}

		return saveList(ctx, s, constants.KeyImages, list)
	})
}

func (repo *imageRepository) Delete(ctx context.Context, id string) error {
	return atomic(ctx, repo.session, func(s kvstore.Session) error {
		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		idx := indexOf(list, id)
		if idx < 0 {
			return repository.ErrImageNotFound
		}

		return saveList(ctx, s, constants.KeyImages, append(list[:idx], list[idx+1:]...))
	})
}

func (repo *imageRepository) GetByAssociatedID(ctx context.Context, associatedID string) ([]*entity.ImageRecord, error) {
	return repo.filter(ctx, func(img *entity.ImageRecord) bool { return img.AssociatedID == associatedID })
}

func (repo *imageRepository) GetByType(ctx context.Context, imageType entity.ImageType) ([]*entity.ImageRecord, error) {
	return repo.filter(ctx, func(img *entity.ImageRecord) bool { return img.Type == imageType })
}

func (repo *imageRepository) filter(ctx context.Context, keep func(*entity.ImageRecord) bool) ([]*entity.ImageRecord, error) {
	list, err := repo.load(ctx, repo.session)
	if err != nil {
		return nil, err
	}

	result := make([]*entity.ImageRecord, 0, len(list))
	for _, rec := range list {
		if keep(rec.ImageRecord) {
			result = append(result, cloneImage(rec.ImageRecord))
		}
	}

	return result, nil
}

func cloneImage(img *entity.ImageRecord) *entity.ImageRecord {
	cloned := *img
	if img.Metadata != nil {
		meta := *img.Metadata
		if meta.MLAssessment != nil {
			assessment := *meta.MLAssessment
			meta.MLAssessment = &assessment
		}
		cloned.Metadata = &meta
	}

	return &cloned
}
