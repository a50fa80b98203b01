package handlers

import (
	"errors"

	"github.com/clinicbook/api/internal/http/flash"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindForm binds an urlencoded form (or JSON body, same tags) into out.
// Returns false after flashing and redirecting on failure, mirroring
// how the pages treated incomplete submissions.
func BindForm(ctx *gin.Context, out interface{}, redirectTo string) bool {
	err := ctx.ShouldBind(out)

	if err == nil {
		return true
	}

	RedirectWithFlash(ctx, redirectTo, flash.LevelDanger, bindMessage(err))

	return false
}

func bindMessage(err error) string {
	var validatorErrs validator.ValidationErrors

	if errors.As(err, &validatorErrs) {
		for _, fieldErr := range validatorErrs {
			if fieldErr.Tag() == "required" {
				return "Please fill all fields."
			}
		}

		return "Invalid form input."
	}

	return "Invalid form input."
}
