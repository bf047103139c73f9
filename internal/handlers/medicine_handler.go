package handlers

import (
	"math"

	"github.com/arzan03/medistore/internal/models"
	"github.com/arzan03/medistore/internal/services"
	"github.com/gofiber/fiber/v2"
)

type MedicineHandler struct {
	medicines *services.MedicineService
}

func NewMedicineHandler(medicines *services.MedicineService) *MedicineHandler {
	return &MedicineHandler{medicines: medicines}
}

func (h *MedicineHandler) List(c *fiber.Ctx) error {
	medicines, err := h.medicines.ListMedicines(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": statusSuccess, "data": medicines})
}

func (h *MedicineHandler) Get(c *fiber.Ctx) error {
	medicine, err := h.medicines.GetMedicine(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": statusSuccess, "data": medicine})
}

func (h *MedicineHandler) Create(c *fiber.Ctx) error {
	var in models.MedicineInput
	if err := c.BodyParser(&in); err != nil {
		return badBody()
	}

	medicine, err := h.medicines.CreateMedicine(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  statusSuccess,
		"message": "Medicine added successfully",
		"data":    medicine,
	})
}

func (h *MedicineHandler) Update(c *fiber.Ctx) error {
	var in models.MedicineInput
	if err := c.BodyParser(&in); err != nil {
		return badBody()
	}

	medicine, err := h.medicines.UpdateMedicine(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  statusSuccess,
		"message": "Medicine updated successfully",
		"data":    medicine,
	})
}

func (h *MedicineHandler) Delete(c *fiber.Ctx) error {
	if err := h.medicines.DeleteMedicine(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": statusSuccess, "message": "Medicine deleted successfully"})
}

// UpdateStock accepts {"stock": n} where n is a whole, non-negative number.
func (h *MedicineHandler) UpdateStock(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return badBody()
	}
	n, ok := body["stock"].(float64)
	if !ok || n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid stock value")
	}

	medicine, err := h.medicines.UpdateStock(c.UserContext(), c.Params("id"), int(n))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  statusSuccess,
		"message": "Stock updated successfully",
		"data":    medicine,
	})
}

func (h *MedicineHandler) UpdateAllStock(c *fiber.Ctx) error {
	if err := h.medicines.ResetAllStock(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": statusSuccess, "message": "All medicines stock updated successfully"})
}

func (h *MedicineHandler) UploadImage(c *fiber.Ctx) error {
	upload, f, err := formUpload(c, "image")
	if err != nil {
		return err
	}
	defer f.Close()

	medicine, err := h.medicines.UploadImage(c.UserContext(), c.Params("id"), upload)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  statusSuccess,
		"message": "Image uploaded successfully",
		"data":    medicine,
	})
}
