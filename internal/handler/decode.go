package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/herbal-kart/internal/domain/catalog"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
	"github.com/xenking/herbal-kart/internal/domain/order"
)

const maxBodySize = 1 << 20

// fieldDecoder decodes the value of one object field.
type fieldDecoder func(d *jx.Decoder, key string) error

// decodeBody reads a JSON object from the request body. Any syntax or type
// error becomes a ValidationError.
func decodeBody(w http.ResponseWriter, r *http.Request, field fieldDecoder) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return invalid("read body: %v", err)
	}
	if err := jx.DecodeBytes(data).Obj(field); err != nil {
		return invalid("invalid JSON body: %v", err)
	}
	return nil
}

func str(d *jx.Decoder, dst *string) error {
	v, err := d.Str()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// optStr decodes a string that may be null.
func optStr(d *jx.Decoder, dst *string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return str(d, dst)
}

func boolean(d *jx.Decoder, dst *bool) error {
	v, err := d.Bool()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func integer(d *jx.Decoder, dst *int) error {
	v, err := d.Int()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func number(d *jx.Decoder, dst *decimal.Decimal) error {
	if d.Next() != jx.Number {
		return errors.Errorf("expected number, got %s", d.Next())
	}
	n, err := d.Num()
	if err != nil {
		return err
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		return errors.Wrap(err, "parse number")
	}
	*dst = v
	return nil
}

func optNumber(d *jx.Decoder, dst *decimal.NullDecimal) error {
	if d.Next() == jx.Null {
		dst.Valid = false
		return d.Null()
	}
	if err := number(d, &dst.Decimal); err != nil {
		return err
	}
	dst.Valid = true
	return nil
}

func optFloat(d *jx.Decoder, dst **float64) error {
	if d.Next() == jx.Null {
		*dst = nil
		return d.Null()
	}
	v, err := d.Float64()
	if err != nil {
		return err
	}
	*dst = &v
	return nil
}

func strs(d *jx.Decoder, dst *[]string) error {
	out := []string{}
	err := d.Arr(func(d *jx.Decoder) error {
		v, err := d.Str()
		out = append(out, v)
		return err
	})
	*dst = out
	return err
}

type cartItemRequest struct {
	ProductID   string
	Quantity    int
	hasQuantity bool
}

func (req *cartItemRequest) decode(d *jx.Decoder, key string) error {
	switch key {
	case "product_id":
		return str(d, &req.ProductID)
	case "quantity":
		req.hasQuantity = true
		return integer(d, &req.Quantity)
	default:
		return d.Skip()
	}
}

func (req *cartItemRequest) validatePresence() error {
	switch {
	case req.ProductID == "":
		return invalid("product_id: required")
	case !req.hasQuantity:
		return invalid("quantity: required")
	}
	return nil
}

func (req *cartItemRequest) validate() error {
	if err := req.validatePresence(); err != nil {
		return err
	}
	if req.Quantity < 1 {
		return invalid("quantity: must be at least 1, got %d", req.Quantity)
	}
	return nil
}

type applyCouponRequest struct {
	Code string
}

func (req *applyCouponRequest) decode(d *jx.Decoder, key string) error {
	if key == "code" {
		return str(d, &req.Code)
	}
	return d.Skip()
}

type checkoutRequest struct {
	order.CheckoutRequest
	hasAddress bool
}

func (req *checkoutRequest) decode(d *jx.Decoder, key string) error {
	switch key {
	case "address":
		req.hasAddress = true
		return d.Obj(func(d *jx.Decoder, key string) error {
			return decodeAddress(d, key, &req.Address)
		})
	case "area_pincode":
		return str(d, &req.AreaPincode)
	case "payment_method":
		return str(d, &req.PaymentMethod)
	default:
		return d.Skip()
	}
}

func decodeAddress(d *jx.Decoder, key string, a *order.Address) error {
	switch key {
	case "label":
		return optStr(d, &a.Label)
	case "line1":
		return str(d, &a.Line1)
	case "line2":
		return optStr(d, &a.Line2)
	case "city":
		return str(d, &a.City)
	case "state":
		return str(d, &a.State)
	case "pincode":
		return str(d, &a.Pincode)
	case "coordinates":
		if d.Next() == jx.Null {
			return d.Null()
		}
		var coords []float64
		if err := d.Arr(func(d *jx.Decoder) error {
			v, err := d.Float64()
			coords = append(coords, v)
			return err
		}); err != nil {
			return err
		}
		if len(coords) != 2 {
			return errors.Errorf("coordinates: want [lat, lng], got %d values", len(coords))
		}
		a.Coordinates = &[2]float64{coords[0], coords[1]}
		return nil
	default:
		return errors.Errorf("address: unknown field %q", key)
	}
}

func (req *checkoutRequest) validate() error {
	if !req.hasAddress {
		return invalid("address: required")
	}
	if err := req.Address.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	switch {
	case req.AreaPincode == "":
		return invalid("area_pincode: required")
	case req.PaymentMethod == "":
		return invalid("payment_method: required")
	}
	return nil
}

type authRequest struct {
	Name   string
	Email  string
	Mobile string
}

func (req *authRequest) decode(d *jx.Decoder, key string) error {
	switch key {
	case "name":
		return optStr(d, &req.Name)
	case "email":
		return str(d, &req.Email)
	case "mobile":
		return str(d, &req.Mobile)
	default:
		return d.Skip()
	}
}

func (req *authRequest) validate() error {
	switch {
	case req.Email == "":
		return invalid("email: required")
	case req.Mobile == "":
		return invalid("mobile: required")
	}
	return nil
}

func decodeCategory(d *jx.Decoder, key string, c *catalog.Category) error {
	switch key {
	case "name":
		var v string
		err := str(d, &v)
		c.Name = catalog.CategoryName(v)
		return err
	case "slug":
		return str(d, &c.Slug)
	case "description":
		return optStr(d, &c.Description)
	case "image_url":
		return optStr(d, &c.ImageURL)
	case "active":
		return boolean(d, &c.Active)
	default:
		return d.Skip()
	}
}

func decodeProduct(d *jx.Decoder, key string, p *catalog.Product) error {
	switch key {
	case "title":
		return str(d, &p.Title)
	case "sku":
		return optStr(d, &p.SKU)
	case "description":
		return optStr(d, &p.Description)
	case "price":
		return number(d, &p.Price)
	case "mrp":
		return optNumber(d, &p.MRP)
	case "unit":
		var v string
		err := str(d, &v)
		p.Unit = catalog.Unit(v)
		return err
	case "weight":
		return optFloat(d, &p.Weight)
	case "category":
		var v string
		err := str(d, &v)
		p.Category = catalog.CategoryName(v)
		return err
	case "image_url":
		return str(d, &p.ImageURL)
	case "in_stock":
		return boolean(d, &p.InStock)
	case "tags":
		return strs(d, &p.Tags)
	default:
		return d.Skip()
	}
}

func decodeBanner(d *jx.Decoder, key string, b *catalog.Banner) error {
	switch key {
	case "title":
		return optStr(d, &b.Title)
	case "subtitle":
		return optStr(d, &b.Subtitle)
	case "image_url":
		return str(d, &b.ImageURL)
	case "aspect_ratio":
		return str(d, &b.AspectRatio)
	case "active":
		return boolean(d, &b.Active)
	default:
		return d.Skip()
	}
}

func decodeOffer(d *jx.Decoder, key string, o *catalog.Offer) error {
	switch key {
	case "title":
		return str(d, &o.Title)
	case "description":
		return optStr(d, &o.Description)
	case "image_url":
		return optStr(d, &o.ImageURL)
	case "active":
		return boolean(d, &o.Active)
	default:
		return d.Skip()
	}
}

func decodeCoupon(d *jx.Decoder, key string, c *coupon.Coupon) error {
	switch key {
	case "code":
		return str(d, &c.Code)
	case "discount_type":
		var v string
		err := str(d, &v)
		c.DiscountType = coupon.DiscountType(v)
		return err
	case "value":
		return number(d, &c.Value)
	case "min_amount":
		return number(d, &c.MinAmount)
	case "max_discount":
		return optNumber(d, &c.MaxDiscount)
	case "active":
		return boolean(d, &c.Active)
	default:
		return d.Skip()
	}
}
