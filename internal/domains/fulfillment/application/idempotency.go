package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/cafe-pos-server/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
)

type normalizedCart struct {
	OwnerUserID   int64            `json:"ownerUserId"`
	PaymentMethod string           `json:"paymentMethod"`
	Discount      string           `json:"discount"`
	Lines         []normalizedLine `json:"lines"`
}

type normalizedLine struct {
	MenuItemID int64             `json:"menuItemId"`
	SizeID     *int64            `json:"sizeId"`
	Quantity   int32             `json:"quantity"`
	Price      string            `json:"price"`
	Addons     []normalizedAddon `json:"addons"`
}

type normalizedAddon struct {
	MenuItemID int64  `json:"menuItemId"`
	Price      string `json:"price"`
}

// FingerprintCart builds a deterministic hash of a create-order payload. Whole-cent
// decimals are rendered at fixed precision so 140 and 140.00 hash alike; finer amounts
// keep every digit so 1.004 and 0.996 never collide.
func FingerprintCart(input ordertypes.CreateOrderInput) (string, error) {
	normalized := normalizedCart{
		OwnerUserID:   input.OwnerUserID,
		PaymentMethod: orderdomain.NormalizePaymentMethod(input.PaymentMethod),
		Discount:      fingerprintAmount(input.Discount),
		Lines:         make([]normalizedLine, 0, len(input.Lines)),
	}
	for _, line := range input.Lines {
		nl := normalizedLine{
			MenuItemID: line.MenuItemID,
			SizeID:     line.SizeID,
			Quantity:   line.Quantity,
			Price:      fingerprintAmount(line.Price),
			Addons:     make([]normalizedAddon, 0, len(line.Addons)),
		}
		for _, addon := range line.Addons {
			nl.Addons = append(nl.Addons, normalizedAddon{MenuItemID: addon.MenuItemID, Price: fingerprintAmount(addon.Price)})
		}
		normalized.Lines = append(normalized.Lines, nl)
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func fingerprintAmount(amount decimal.Decimal) string {
	if orderdomain.IsCents(amount) {
		return amount.StringFixed(2)
	}
	return amount.String()
}
