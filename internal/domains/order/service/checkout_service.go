package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/address"
	cartModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/repository"
	productModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/metrics"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/utils"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

// voucherSlots - tối đa 1 voucher giảm giá + 1 voucher vận chuyển
type voucherSlots struct {
	discount *promotionModel.Candidate
	shipping *promotionModel.Candidate
}

// =====================================================
// CHECKOUT
// =====================================================

func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, req model.CheckoutRequest) (*model.CheckoutResponse, error) {
	// ==================== STEP 1: WARD ====================
	ward, err := s.wards.GetWard(ctx, req.WardCode)
	if err != nil {
		if errors.Is(err, address.ErrInvalidWardCode) || errors.Is(err, address.ErrWardNotFound) {
			return nil, model.NewOrderError(model.ErrCodeInvalidWard, "Phường/xã giao hàng không hợp lệ", err)
		}
		return nil, err
	}
	if ward == nil {
		return nil, model.NewOrderError(model.ErrCodeInvalidWard, "Phường/xã giao hàng không hợp lệ", nil)
	}

	// ==================== STEP 2: CART + GIÁ MỚI NHẤT ====================
	items, err := s.cartRepo.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	regular := make([]cartModel.CartItem, 0, len(items))
	for _, item := range items {
		if !item.IsGift {
			regular = append(regular, item)
		}
	}
	if len(regular) == 0 {
		return nil, model.NewOrderError(model.ErrCodeCartEmpty, "Giỏ hàng đang trống", nil)
	}

	products, err := s.products.GetProductsByIDs(ctx, cartModel.ProductIDs(regular))
	if err != nil {
		return nil, err
	}

	// ==================== STEP 3: TỒN KHO ====================
	lines := make([]promotionModel.Line, 0, len(regular))
	for _, item := range regular {
		p, ok := products[item.ProductID]
		if !ok || !p.IsActive {
			return nil, model.NewOrderError(model.ErrCodeProductUnavailable, "Có sản phẩm trong giỏ không còn kinh doanh", nil)
		}
		if p.Stock < item.Quantity {
			return nil, model.NewInsufficientStockError(p.Name, item.Quantity, p.Stock)
		}
		lines = append(lines, promotionModel.Line{
			ProductID:  p.ID,
			CategoryID: p.CategoryID,
			Quantity:   item.Quantity,
			UnitPrice:  p.Price,
			Discount:   p.DiscountAmount,
		})
	}

	// ==================== STEP 4: VOUCHER ====================
	state, err := s.cartRepo.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	slots, err := s.resolveSlots(ctx, userID, state, req)
	if err != nil {
		return nil, err
	}
	if slots.discount != nil && slots.shipping != nil &&
		!promotionModel.CanCombine(slots.discount.Promotion, slots.shipping.Promotion) {
		return nil, promotionModel.ErrNotCombinable
	}

	evalIn := promotionModel.EvalInput{
		UserID:      userID,
		Lines:       lines,
		WardCode:    ward.Code,
		ShippingFee: s.cfg.ShippingFee,
		Now:         s.now(),
	}
	var discountResult, shippingResult *promotionModel.EvalResult
	if slots.discount != nil {
		if discountResult, err = s.promotions.Evaluate(ctx, slots.discount, evalIn); err != nil {
			return nil, err
		}
	}
	if slots.shipping != nil {
		if shippingResult, err = s.promotions.Evaluate(ctx, slots.shipping, evalIn); err != nil {
			return nil, err
		}
	}

	// ==================== STEP 5: ORDER DETAILS ====================
	details := make([]model.OrderDetail, 0, len(regular))
	firstDelivery := -1
	for i, item := range regular {
		p := products[item.ProductID]
		details = append(details, newDetail(p, item.Quantity, p.DiscountAmount, false))
		details[i].DeliveryDate = item.DeliveryDate
		details[i].DeliveryTime = item.DeliveryTime
		details[i].Note = item.Note
		if firstDelivery < 0 && item.DeliveryDate != nil {
			firstDelivery = i
		}
	}
	if discountResult != nil && len(discountResult.Gifts) > 0 {
		gifts, err := s.giftDetails(ctx, discountResult.Gifts, products)
		if err != nil {
			return nil, err
		}
		details = append(details, gifts...)
	}

	// ==================== STEP 6: TỔNG TIỀN + ĐIỂM ====================
	if req.PointsToUse > 0 {
		balance, err := s.orderRepo.GetUserPoints(ctx, userID)
		if err != nil {
			return nil, err
		}
		if req.PointsToUse > balance {
			return nil, model.NewOrderError(model.ErrCodeInsufficientPoints,
				fmt.Sprintf("Bạn chỉ có %d điểm", balance), model.ErrInsufficientPoints)
		}
	}

	in := model.TotalsInput{
		ShippingFee:     s.cfg.ShippingFee,
		PointsRequested: req.PointsToUse,
		PointsToVND:     s.cfg.PointsToVND,
	}
	for _, d := range details {
		qty := decimal.NewFromInt(int64(d.Quantity))
		in.GrossSubtotal = in.GrossSubtotal.Add(d.UnitPrice.Mul(qty))
		in.ProductDiscount = in.ProductDiscount.Add(d.Discount.Mul(qty))
	}
	if discountResult != nil {
		// mã nhập ở giỏ -> promotion_discount, voucher trong ví -> voucher_discount
		if slots.discount.Source == promotionModel.SourceWallet {
			in.VoucherDiscount = discountResult.DiscountAmount
		} else {
			in.PromotionDiscount = discountResult.DiscountAmount
		}
	}
	if shippingResult != nil {
		in.ShippingDiscount = shippingResult.ShippingDiscount
	}
	totals := model.CalculateTotals(in)

	// ==================== STEP 7: GHI DB ====================
	order := s.newOrder(userID, req, ward, totals, slots)
	if firstDelivery >= 0 {
		order.DeliveryDate = details[firstDelivery].DeliveryDate
		order.DeliveryTime = details[firstDelivery].DeliveryTime
	}

	params := repository.CreateOrderParams{
		Order:      order,
		Details:    details,
		CodeSuffix: utils.RandomLetters(3),
	}
	for _, cand := range []*promotionModel.Candidate{slots.discount, slots.shipping} {
		if cand == nil {
			continue
		}
		params.UsedCodeIDs = append(params.UsedCodeIDs, cand.Code.ID)
		if id := cand.UserVoucherID(); id != nil {
			params.UsedVoucherIDs = append(params.UsedVoucherIDs, *id)
		}
	}

	if err := s.orderRepo.CreateOrder(ctx, params); err != nil {
		return nil, mapCreateError(err)
	}

	logger.Info("Order created", map[string]interface{}{
		"order_id":       order.ID,
		"order_code":     order.OrderCode,
		"user_id":        userID,
		"total":          order.TotalAmount.String(),
		"payment_method": order.PaymentMethod,
		"points_used":    order.PointsUsed,
	})

	// ==================== STEP 8: SAU COMMIT ====================
	metrics.OrdersCreatedTotal.WithLabelValues(string(order.PaymentMethod)).Inc()

	resp := &model.CheckoutResponse{
		Order:      order,
		Items:      params.Details,
		PointsUsed: order.PointsUsed,
	}
	if order.PaymentMethod.IsOnline() {
		s.enqueueAutoCancel(ctx, order)
		if s.payments != nil {
			url, err := s.payments.CreatePaymentURL(ctx, order)
			if err != nil {
				// khách có thể tạo lại link qua POST /orders/:id/pay
				logger.Error("Failed to create payment url", err)
			} else {
				resp.PaymentURL = &url
			}
		}
	}
	return resp, nil
}

// resolveSlots gom voucher từ CartState và từ request vào 2 slot
func (s *OrderService) resolveSlots(ctx context.Context, userID uuid.UUID, state *cartModel.CartState, req model.CheckoutRequest) (*voucherSlots, error) {
	slots := &voucherSlots{}

	if state != nil {
		ref := state.VoucherRef()
		if !ref.Empty() {
			cand, err := s.promotions.ResolveCandidate(ctx, userID, ref)
			if err != nil {
				return nil, err
			}
			if cand.Type() == promotionModel.TypeShipping {
				slots.shipping = cand
			} else {
				slots.discount = cand
			}
		}
	}

	if req.DiscountVoucherID != nil {
		cand, err := s.walletCandidate(ctx, userID, *req.DiscountVoucherID, false)
		if err != nil {
			return nil, err
		}
		if err := fill(&slots.discount, cand); err != nil {
			return nil, err
		}
	}
	if req.ShippingVoucherID != nil {
		cand, err := s.walletCandidate(ctx, userID, *req.ShippingVoucherID, true)
		if err != nil {
			return nil, err
		}
		if err := fill(&slots.shipping, cand); err != nil {
			return nil, err
		}
	}
	return slots, nil
}

func (s *OrderService) walletCandidate(ctx context.Context, userID, voucherID uuid.UUID, shipping bool) (*promotionModel.Candidate, error) {
	id := voucherID
	cand, err := s.promotions.ResolveCandidate(ctx, userID, promotionModel.VoucherRef{UserVoucherID: &id})
	if err != nil {
		return nil, err
	}
	if (cand.Type() == promotionModel.TypeShipping) != shipping {
		return nil, model.NewOrderError(model.ErrCodeVoucherTypeMismatch, "Loại voucher không đúng với vị trí áp dụng", nil)
	}
	return cand, nil
}

// fill đặt cand vào slot; cùng 1 voucher thì không tính là xung đột
func fill(slot **promotionModel.Candidate, cand *promotionModel.Candidate) error {
	if *slot == nil {
		*slot = cand
		return nil
	}
	existing := *slot
	if existing.Code.ID == cand.Code.ID {
		if a, b := existing.UserVoucherID(), cand.UserVoucherID(); a == nil || b == nil || *a == *b {
			*slot = cand
			return nil
		}
	}
	return model.NewOrderError(model.ErrCodeVoucherConflict, "Chỉ được dùng 1 voucher cho mỗi loại", nil)
}

func (s *OrderService) giftDetails(ctx context.Context, gifts []promotionModel.GiftLine, known map[uuid.UUID]*productModel.Product) ([]model.OrderDetail, error) {
	missing := make([]uuid.UUID, 0)
	for _, g := range gifts {
		if _, ok := known[g.ProductID]; !ok {
			missing = append(missing, g.ProductID)
		}
	}
	lookup := known
	if len(missing) > 0 {
		extra, err := s.products.GetProductsByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		lookup = make(map[uuid.UUID]*productModel.Product, len(known)+len(extra))
		for id, p := range known {
			lookup[id] = p
		}
		for id, p := range extra {
			lookup[id] = p
		}
	}

	details := make([]model.OrderDetail, 0, len(gifts))
	for _, g := range gifts {
		p, ok := lookup[g.ProductID]
		if !ok {
			continue
		}
		d := newDetail(p, g.Quantity, g.Discount, true)
		d.UnitPrice = g.UnitPrice
		d.Discount = decimal.Min(g.Discount, g.UnitPrice)
		d.LineTotal = d.UnitPrice.Sub(d.Discount).Mul(decimal.NewFromInt(int64(d.Quantity)))
		details = append(details, d)
	}
	return details, nil
}

func newDetail(p *productModel.Product, qty int, discount decimal.Decimal, isGift bool) model.OrderDetail {
	discount = decimal.Min(discount, p.Price)
	return model.OrderDetail{
		ID:          uuid.New(),
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		UnitPrice:   p.Price,
		Discount:    discount,
		IsGift:      isGift,
		LineTotal:   p.Price.Sub(discount).Mul(decimal.NewFromInt(int64(qty))),
	}
}

func (s *OrderService) newOrder(userID uuid.UUID, req model.CheckoutRequest, ward *address.Ward, t model.Totals, slots *voucherSlots) *model.Order {
	order := &model.Order{
		ID:            uuid.New(),
		UserID:        userID,
		ReceiverName:  req.ReceiverName,
		Phone:         req.Phone,
		Address:       req.Address,
		WardCode:      ward.Code,
		WardName:      ward.Name,
		Note:          req.NotePtr(),
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: model.PaymentStatusPending,
		Status:        model.StatusPending,
		ShipperStatus: model.ShipperNone,

		GrossSubtotal:     t.GrossSubtotal,
		ProductDiscount:   t.ProductDiscount,
		Subtotal:          t.Subtotal,
		PromotionDiscount: t.PromotionDiscount,
		VoucherDiscount:   t.VoucherDiscount,
		ShippingFee:       t.ShippingFee,
		ShippingDiscount:  t.ShippingDiscount,
		PointsUsed:        t.PointsUsed,
		PointsDiscount:    t.PointsDiscount,
		TotalAmount:       t.Total,
	}

	for _, cand := range []*promotionModel.Candidate{slots.discount, slots.shipping} {
		if cand == nil {
			continue
		}
		if cand.Source == promotionModel.SourceCode {
			codeID := cand.Code.ID
			order.PromotionCodeID = &codeID
			continue
		}
		if cand == slots.shipping {
			order.ShippingVoucherID = cand.UserVoucherID()
		} else {
			order.DiscountVoucherID = cand.UserVoucherID()
		}
	}

	if order.PaymentMethod.IsOnline() {
		taskID := model.AutoCancelTaskID(order.ID)
		order.CancelJobID = &taskID
	}
	return order
}

func mapCreateError(err error) error {
	var orderErr *model.OrderError
	switch {
	case errors.As(err, &orderErr):
		return err
	case errors.Is(err, model.ErrVoucherUnavailable):
		return model.NewOrderError(model.ErrCodeVoucherUnavailable, "Voucher đã được sử dụng hoặc hết lượt", err)
	case errors.Is(err, model.ErrInsufficientPoints):
		return model.NewOrderError(model.ErrCodeInsufficientPoints, "Không đủ điểm tích lũy", err)
	}
	return err
}

// enqueueAutoCancel - task có id cố định để payment revoke được
func (s *OrderService) enqueueAutoCancel(ctx context.Context, order *model.Order) {
	if s.queue == nil {
		return
	}

	payload, err := json.Marshal(model.AutoCancelOrderPayload{
		OrderID:   order.ID,
		OrderCode: order.OrderCode,
		UserID:    order.UserID,
	})
	if err != nil {
		logger.Error("Failed to marshal auto-cancel payload", err)
		return
	}

	task := asynq.NewTask(shared.TypeAutoCancelOrder, payload)
	_, err = s.queue.EnqueueContext(ctx, task,
		asynq.TaskID(*order.CancelJobID),
		asynq.Queue(shared.QueueCritical),
		asynq.ProcessIn(s.cfg.PaymentTimeout),
		asynq.MaxRetry(3),
	)
	if err != nil {
		logger.ErrorWithFields("Failed to enqueue auto-cancel task", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return
	}

	logger.Info("Scheduled auto-cancel", map[string]interface{}{
		"order_id":   order.ID,
		"order_code": order.OrderCode,
		"process_in": s.cfg.PaymentTimeout.String(),
	})
}
