package handlers

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/harentsoaR/complaint-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the objectid and kind tags to gin's validator and
// makes field errors report the wire name of a field.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not validator/v10")
			return
		}
		v.RegisterTagNameFunc(wireName)
		if err := v.RegisterValidation("objectid", isObjectID); err != nil {
			registerErr = err
			return
		}
		registerErr = v.RegisterValidation("kind", isKind)
	})
	return registerErr
}

func wireName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func isObjectID(fl validator.FieldLevel) bool {
	return primitive.IsValidObjectID(fl.Field().String())
}

func isKind(fl validator.FieldLevel) bool {
	return models.Kind(fl.Field().String()).Valid()
}
