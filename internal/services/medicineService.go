package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/arzan03/medistore/internal/db"
	"github.com/arzan03/medistore/internal/models"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	medicineCachePrefix = "medicine:"
	medicineListKey     = medicineCachePrefix + "list"
)

type MedicineService struct {
	medicines MedicineStore
	images    ImageStore
	cache     Cache
	logger    zerolog.Logger
}

func NewMedicineService(medicines MedicineStore, images ImageStore, cache Cache, logger zerolog.Logger) *MedicineService {
	return &MedicineService{
		medicines: medicines,
		images:    images,
		cache:     cache,
		logger:    logger,
	}
}

// ListMedicines serves the catalog from the cache when it can and fills the
// cache on a miss. Cache failures never fail the request.
func (s *MedicineService) ListMedicines(ctx context.Context) ([]models.Medicine, error) {
	if data, err := s.cache.Get(ctx, medicineListKey); err == nil {
		var cached []models.Medicine
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	medicines, err := s.medicines.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}

	if err := s.cache.Set(ctx, medicineListKey, medicines); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache medicine list")
	}
	return medicines, nil
}

func (s *MedicineService) GetMedicine(ctx context.Context, id string) (*models.Medicine, error) {
	objID, err := parseMedicineID(id)
	if err != nil {
		return nil, err
	}
	medicine, err := s.medicines.FindByID(ctx, objID)
	if err != nil {
		return nil, medicineError(err, "find medicine")
	}
	return medicine, nil
}

func (s *MedicineService) CreateMedicine(ctx context.Context, in models.MedicineInput) (*models.Medicine, error) {
	medicine := fromInput(in)
	if medicine.ImageURL == "" {
		medicine.ImageURL = models.DefaultImageURL
	}
	if err := validateMedicine(medicine); err != nil {
		return nil, err
	}

	if err := s.medicines.Create(ctx, medicine); err != nil {
		return nil, fmt.Errorf("create medicine: %w", err)
	}
	s.invalidate(ctx)

	s.logger.Info().Str("medicine_id", medicine.ID.Hex()).Msg("Medicine created")
	return medicine, nil
}

func (s *MedicineService) UpdateMedicine(ctx context.Context, id string, in models.MedicineInput) (*models.Medicine, error) {
	objID, err := parseMedicineID(id)
	if err != nil {
		return nil, err
	}
	medicine := fromInput(in)
	if err := validateMedicine(medicine); err != nil {
		return nil, err
	}

	updated, err := s.medicines.Update(ctx, objID, medicine)
	if err != nil {
		return nil, medicineError(err, "update medicine")
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *MedicineService) DeleteMedicine(ctx context.Context, id string) error {
	objID, err := parseMedicineID(id)
	if err != nil {
		return err
	}
	if err := s.medicines.Delete(ctx, objID); err != nil {
		return medicineError(err, "delete medicine")
	}
	s.invalidate(ctx)

	s.logger.Info().Str("medicine_id", id).Msg("Medicine deleted")
	return nil
}

// UpdateStock sets an absolute stock value for one medicine.
func (s *MedicineService) UpdateStock(ctx context.Context, id string, stock int) (*models.Medicine, error) {
	if stock < 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid stock value")
	}
	objID, err := parseMedicineID(id)
	if err != nil {
		return nil, err
	}

	medicine, err := s.medicines.SetStock(ctx, objID, stock)
	if err != nil {
		return nil, medicineError(err, "update stock")
	}
	s.invalidate(ctx)
	return medicine, nil
}

// ResetAllStock puts every medicine back to the default stock level.
func (s *MedicineService) ResetAllStock(ctx context.Context) error {
	n, err := s.medicines.ResetAllStock(ctx, models.DefaultStock)
	if err != nil {
		return fmt.Errorf("reset stock: %w", err)
	}
	s.invalidate(ctx)

	s.logger.Info().Int64("medicines", n).Int("stock", models.DefaultStock).Msg("Stock reset")
	return nil
}

func (s *MedicineService) UploadImage(ctx context.Context, id string, file Upload) (*models.Medicine, error) {
	objID, err := parseMedicineID(id)
	if err != nil {
		return nil, err
	}
	if !isImage(file.ContentType) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "File must be an image")
	}
	if _, err := s.medicines.FindByID(ctx, objID); err != nil {
		return nil, medicineError(err, "find medicine")
	}

	url, err := s.images.Upload(ctx, "medicines", file.Filename, file.Body, file.Size, file.ContentType)
	if err != nil {
		return nil, err
	}

	medicine, err := s.medicines.SetImageURL(ctx, objID, url)
	if err != nil {
		return nil, medicineError(err, "set image")
	}
	s.invalidate(ctx)
	return medicine, nil
}

func (s *MedicineService) invalidate(ctx context.Context) {
	if err := s.cache.DeleteByPrefix(ctx, medicineCachePrefix); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to invalidate medicine cache")
	}
}

// fromInput applies the create/update defaults: description and a stock of
// 100 when omitted.
func fromInput(in models.MedicineInput) *models.Medicine {
	m := &models.Medicine{
		ProductName: in.ProductName,
		Description: in.Description,
		Price:       in.Price,
		Stock:       models.DefaultStock,
		ImageURL:    in.ImageURL,
	}
	if m.Description == "" {
		m.Description = models.DefaultDescription
	}
	if in.Stock != nil {
		m.Stock = *in.Stock
	}
	return m
}

func validateMedicine(m *models.Medicine) error {
	switch {
	case m.ProductName == "":
		return fiber.NewError(fiber.StatusBadRequest, "product_name is required")
	case m.Price < 0:
		return fiber.NewError(fiber.StatusBadRequest, "price must not be negative")
	case m.Stock < 0:
		return fiber.NewError(fiber.StatusBadRequest, "Invalid stock value")
	}
	return nil
}

func parseMedicineID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusBadRequest, "Invalid medicine ID format")
	}
	return objID, nil
}

func medicineError(err error, op string) error {
	if errors.Is(err, db.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Medicine not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}
