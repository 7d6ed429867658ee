package service

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/saliou-conde/vending-machine/internal/repository"
)

// ProductAPIPath - базовый путь ресурса, попадает в поле path конверта
const ProductAPIPath = "/api/v1/products/"

// Тексты конверта
const (
	errProductNotFound   = "Product does not exist in the DB"
	errProductNotAdded   = "Product cannot be added"
	msgMaxStockExceeded  = "Inventar quantity shall not be more than than for a dedicated product"
	msgProductFoundByID  = "Product found by ID: "
	msgProductNotFoundBy = "Product not found by ID: "
)

// ProductView - товар вместе с разрешённой корзиной
// Bucket == nil, если у товара нет связи или корзина не найдена
type ProductView struct {
	Product repository.Product
	Bucket  *repository.Bucket
}

// Result - единый конверт результата для get/create/delete/update
// StatusCode несёт бизнес-статус, транспорт отвечает 200 независимо от него
type Result struct {
	Timestamp  time.Time
	StatusCode int
	Message    string
	Error      string
	Path       string
	Product    ProductView
}

// Status возвращает символьное имя статуса: OK, CREATED, BAD_REQUEST, NOT_FOUND
func (r Result) Status() string {
	return StatusName(r.StatusCode)
}

// StatusName переводит HTTP код в символьное имя
func StatusName(code int) string {
	text := http.StatusText(code)
	if text == "" {
		return strconv.Itoa(code)
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}

func productPath(id int) string {
	return ProductAPIPath + strconv.Itoa(id)
}

func (s *ProductService) result(code int, path string, view ProductView) *Result {
	return &Result{
		Timestamp:  s.now().UTC(),
		StatusCode: code,
		Path:       path,
		Product:    view,
	}
}

func (s *ProductService) notFound(id int) *Result {
	r := s.result(http.StatusNotFound, productPath(id), ProductView{})
	r.Error = errProductNotFound
	r.Message = msgProductNotFoundBy + strconv.Itoa(id)
	return r
}
