package catalog

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// StaticSource serves a compiled-in product list.
type StaticSource struct {
	products   []Product
	categories []string
}

// NewStaticSource builds a source over the provided records. A nil product list
// selects the built-in educational catalog.
func NewStaticSource(products []Product, categories []string) *StaticSource {
	if products == nil {
		products = builtinProducts()
		if categories == nil {
			categories = slices.Clone(builtinCategories)
		}
	}
	if categories == nil {
		categories = deriveCategories(products)
	}
	return &StaticSource{products: products, categories: categories}
}

func (s *StaticSource) Products(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSourceUnavailable, err, "static products")
	}
	return slices.Clone(s.products), nil
}

func (s *StaticSource) Product(ctx context.Context, id int) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeSourceUnavailable, err, "static product")
	}
	return findProduct(s.products, id)
}

func (s *StaticSource) Categories(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSourceUnavailable, err, "static categories")
	}
	return slices.Clone(s.categories), nil
}

func findProduct(products []Product, id int) (Product, error) {
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"id": id})
}

func deriveCategories(products []Product) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

var builtinCategories = []string{
	"workbook",
	"mathematics",
	"science",
	"art",
	"islamiat",
	"readers",
}

func builtinProducts() []Product {
	p := func(id int, title, price, image, level, category, description string) Product {
		return Product{
			ID:          id,
			Title:       title,
			Price:       decimal.RequireFromString(price),
			Image:       image,
			Level:       level,
			Category:    category,
			Description: description,
		}
	}
	return []Product{
		p(1, "Brainy Builder A3 - Complete Set", "299.99", "/a3/Brainy Builder a3/Artboard 4.jpg", "A3", "workbook",
			"Comprehensive A3 workbook set covering all essential topics for grade 3 students with engaging activities and colorful illustrations."),
		p(2, "Mathematics 1-7 Series", "199.99", "/a3/maths 1-7/Artboard 1 copy.jpg", "1-7", "mathematics",
			"Complete mathematics series from grade 1 to 7 with progressive learning approach and practical examples."),
		p(3, "Science Explorer 1-7", "249.99", "/a3/science 1-7/Artboard 1.jpg", "1-7", "science",
			"Interactive science series covering physics, chemistry, and biology with hands-on experiments and real-world applications."),
		p(4, "A4 Art Concept Series", "179.99", "/a4/Art Concept Title/Artboard 1.jpg", "A4", "art",
			"Creative art workbook series designed to enhance artistic skills and creative thinking for grade 4 students."),
		p(5, "Islamiat Studies A4", "159.99", "/a4/Islamiat Title/Artboard 4.jpg", "A4", "islamiat",
			"Comprehensive Islamic studies workbook covering Quran, Hadith, and Islamic history for grade 4 students."),
		p(6, "English Readers Collection", "129.99", "/a4/readers/Artboard 1.jpg", "A4", "readers",
			"Engaging English reader series with phonics, vocabulary building, and comprehension exercises."),
		p(7, "Urdu Readers Collection", "129.99", "/a4/readers/Urdu back.jpg", "A4", "readers",
			"Comprehensive Urdu reader series with poetry, stories, and language exercises for grade 4 students."),
		p(8, "Workbook Collection A3", "349.99", "/a3/workbook/Artboard 1.jpg", "A3", "workbook",
			"Complete A3 workbook collection covering all subjects with practice exercises and assessment tools."),
		p(9, "Mathematics Practice Book 1-7", "89.99", "/a3/maths 1-7/Artboard 9.jpg", "1-7", "mathematics",
			"Additional practice book for mathematics with challenging problems and detailed solutions."),
		p(10, "Science Lab Manual 1-7", "119.99", "/a3/science 1-7/Artboard 2.jpg", "1-7", "science",
			"Hands-on science lab manual with step-by-step experiments and safety guidelines."),
		p(11, "Brainy Builder Workbook Set", "399.99", "/a3/Brainy Builder a3/Artboard 4 copy.jpg", "A3", "workbook",
			"Premium workbook set with laminated pages and interactive learning tools for grade 3."),
		p(12, "Art & Craft Activity Book A4", "149.99", "/a4/Art Concept Title/Artboard 1 copy.jpg", "A4", "art",
			"Creative art and craft activity book with supplies and step-by-step instructions."),
	}
}
