package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/curiocity/cityguide/internal/geo"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return v
}

const layoutCarousel = "carousel"

type coordParams struct {
	Lat    *float64 `query:"lat" validate:"required,min=-90,max=90"`
	Lon    *float64 `query:"lon" validate:"required,min=-180,max=180"`
	Layout string   `query:"layout" validate:"omitempty,oneof=carousel list"`
}

func (p coordParams) coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: *p.Lat, Longitude: *p.Lon}
}

func (p coordParams) carousel() bool { return p.Layout == layoutCarousel }

type placesParams struct {
	coordParams
	Radius int `query:"radius" validate:"omitempty,min=0,max=100000"`
}

type restaurantParams struct {
	coordParams
	Name string `query:"name" validate:"max=200"`
}

type searchParams struct {
	Q string `query:"q" validate:"required,max=200"`
}

type newsParams struct {
	Name    string `query:"name" validate:"required,max=200"`
	Country string `query:"country" validate:"omitempty,len=2,alpha"`
}

func parseCoordParams(r *http.Request) (coordParams, error) {
	q := r.URL.Query()
	var p coordParams
	var err error
	if p.Lat, err = optionalFloat(q.Get("lat"), "lat"); err != nil {
		return p, err
	}
	if p.Lon, err = optionalFloat(q.Get("lon"), "lon"); err != nil {
		return p, err
	}
	p.Layout = strings.ToLower(strings.TrimSpace(q.Get("layout")))
	return p, nil
}

func parsePlacesParams(r *http.Request) (placesParams, error) {
	c, err := parseCoordParams(r)
	if err != nil {
		return placesParams{}, err
	}
	p := placesParams{coordParams: c}
	if raw := r.URL.Query().Get("radius"); raw != "" {
		if p.Radius, err = strconv.Atoi(raw); err != nil {
			return p, fmt.Errorf("radius must be an integer")
		}
	}
	return p, nil
}

func optionalFloat(raw, name string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &v, nil
}

// validationMessage renders the first failed rule as "field: rule".
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag())
	}
	return "invalid request"
}
