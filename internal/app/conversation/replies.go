package conversation

import "presto-bot/internal/interfaces"

// Customer-facing copy. Kept in one place so the flow logic reads as
// transitions, not string soup.
const (
	replyGreeting = "🍕 Presto Pizza ga xush kelibsiz!\n\nXizmat ko'rsatishimiz uchun raqamingizni yuboring:"

	replyRegistered = "✅ Ro'yxatdan o'tdingiz!\n\nXizmat turini tanlang:"

	replyDeliveryChosen = "📍 Yetkazib berish tanlandi"
	replyPickupChosen   = "🛍 Olib ketish tanlandi"

	replyAddressPrompt = "Manzilni yuborish uchun Lokatsiyani yuborish tugmasini bosing yoki manzilni matn ko'rinishida yozib yuboring:\n\nMasalan: Chortoq, Navoiy ko'chasi, 15-uy"

	replyPickupAddress    = "✅ Manzil: %s.\n\nMenudan buyurtma bering 👇"
	replyAddressAccepted  = "✅ Manzil qabul qilindi: %s\n\nMenudan buyurtma bering 👇"
	replyLocationAccepted = "✅ Manzil qabul qilindi!\n\nMenudan buyurtma bering 👇"

	replyOrderSent    = "✅ Buyurtmangiz yuborildi!\n💰 Jami: %s so'm"
	replyEmptyCart    = "❌ Buyurtma bo'sh!"
	replyMissingPhone = "❌ Avval raqam yuboring! /start"
	replyMissingType  = "❌ Avval xizmat turini tanlang:"
	replyGenericError = "❌ Xatolik yuz berdi."

	replyCartEmpty  = "🛒 Savatingiz bo'sh."
	replyCartHeader = "🛒 Savatingiz:\n\n"
	replyCartFooter = "\n💰 Jami: %s so'm\n\nBuyurtma berish uchun Mini App-ga kiring."

	replyContactInfo = "☎️ %s\n📍 %s"

	replyPickCategory = "📂 Bo'limni tanlang:"
	replyPickProduct  = "🍽 Mahsulotni tanlang:"
	replyAddedToCart  = "✅ %s savatga qo'shildi (%s so'm)"

	// Fixed addressText value recorded for pickup orders.
	pickupAddressText = "Filialdan olib ketish"
	// Fixed addressText label recorded when coordinates are shared.
	mapLocationLabel = "Xaritadagi lokatsiya yuborildi"
)

// Keyboard keywords. Their literal surface form doubles as the match key for
// free-text events, since pressing a reply-keyboard button sends its text.
const (
	kwMenu     = "🍴 Menyu"
	kwCart     = "🛒 Savat"
	kwRestart  = "🔄 Qayta boshlash"
	kwContact  = "📞 Aloqa"
	kwCancel   = "🔙 Bekor qilish"
	kwSendNum  = "📞 Raqamni yuborish"
	kwSendLoc  = "📍 Lokatsiyani yuborish"
	kwDelivery = "🚖 Yetkazib berish"
	kwPickup   = "🛍 Olib ketish"
)

// Service-type callback payloads.
const (
	cbTypeDelivery = "type_delivery"
	cbTypePickup   = "type_pickup"
)

func (e *Engine) mainMenuKeyboard() *interfaces.Keyboard {
	return (&interfaces.Keyboard{}).
		Row(
			interfaces.Button{Text: kwMenu, WebAppURL: e.webAppURL},
			interfaces.Button{Text: kwCart},
		).
		Row(
			interfaces.Button{Text: kwRestart},
			interfaces.Button{Text: kwContact},
		)
}

func contactRequestKeyboard() *interfaces.Keyboard {
	return (&interfaces.Keyboard{OneTime: true}).
		Row(interfaces.Button{Text: kwSendNum, RequestContact: true})
}

func locationRequestKeyboard() *interfaces.Keyboard {
	return (&interfaces.Keyboard{}).
		Row(interfaces.Button{Text: kwSendLoc, RequestLocation: true}).
		Row(interfaces.Button{Text: kwCancel})
}

func serviceTypeKeyboard() *interfaces.Keyboard {
	return (&interfaces.Keyboard{Inline: true}).
		Row(
			interfaces.Button{Text: kwDelivery, Data: cbTypeDelivery},
			interfaces.Button{Text: kwPickup, Data: cbTypePickup},
		)
}
