package httpapi

import (
	"time"

	"github.com/saliou-conde/vending-machine/internal/repository"
	"github.com/saliou-conde/vending-machine/internal/service"
)

// InventarDTO - корзина инвентаря в HTTP ответе
type InventarDTO struct {
	ID          string `json:"id"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

// ProductDTO - товар в HTTP запросе/ответе
// productId и inventar на входе игнорируются
type ProductDTO struct {
	ProductID    *int         `json:"productId,omitempty"`
	ProductName  string       `json:"productName"`
	ProductPrice int          `json:"productPrice"`
	Inventar     *InventarDTO `json:"inventar,omitempty"`
}

// EnvelopeResponse - конверт ответа для get/create/delete/update
type EnvelopeResponse struct {
	Timestamp  string                `json:"timestamp"`
	Status     string                `json:"status"`
	StatusCode int                   `json:"statusCode"`
	Message    string                `json:"message,omitempty"`
	Error      string                `json:"error,omitempty"`
	Path       string                `json:"path"`
	Data       map[string]ProductDTO `json:"data,omitempty"`
}

const dataKeyProduct = "product"

func toProductDTO(view service.ProductView) ProductDTO {
	dto := ProductDTO{
		ProductName:  view.Product.Name,
		ProductPrice: view.Product.Price,
		Inventar:     toInventarDTO(view.Bucket),
	}
	if view.Product.ID != 0 {
		id := view.Product.ID
		dto.ProductID = &id
	}
	return dto
}

func toInventarDTO(b *repository.Bucket) *InventarDTO {
	if b == nil {
		return nil
	}
	return &InventarDTO{ID: b.ID, ProductName: b.Name, Quantity: b.Quantity}
}

func toProductInput(dto ProductDTO) service.ProductInput {
	return service.ProductInput{Name: dto.ProductName, Price: dto.ProductPrice}
}

func toEnvelope(r *service.Result) EnvelopeResponse {
	return EnvelopeResponse{
		Timestamp:  r.Timestamp.UTC().Format(time.RFC3339Nano),
		Status:     r.Status(),
		StatusCode: r.StatusCode,
		Message:    r.Message,
		Error:      r.Error,
		Path:       r.Path,
		Data:       map[string]ProductDTO{dataKeyProduct: toProductDTO(r.Product)},
	}
}
