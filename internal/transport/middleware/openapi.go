package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// LoadOpenAPI reads and validates the API document at path.
func LoadOpenAPI(ctx context.Context, path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// OpenAPIValidator rejects requests whose path parameters, query or body
// do not match the document. Routes the document does not describe pass
// through untouched. Authentication is enforced by the auth middleware,
// so security requirements are not re-checked here.
func OpenAPIValidator(doc *openapi3.T) (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, err
	}
	// holiday feeds are validated as opaque text
	openapi3filter.RegisterBodyDecoder("text/calendar", openapi3filter.FileBodyDecoder)
	opts := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		MultiError:         false,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				// unknown path or method: chi answers with 404/405
				var routeErr *routers.RouteError
				if errors.As(err, &routeErr) {
					next.ServeHTTP(w, r)
					return
				}
				writeAppError(w, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed))
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    opts,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				writeAppError(w, internal.NewValidationError(requestErrorMessage(err), internal.ErrCodeValidationFailed))
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func requestErrorMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return fmt.Sprintf("invalid %s parameter %q", reqErr.Parameter.In, reqErr.Parameter.Name)
		}
		if reqErr.RequestBody != nil {
			return "request body does not match the schema: " + reqErr.Reason
		}
		return reqErr.Reason
	}
	return "request does not match the API schema"
}
