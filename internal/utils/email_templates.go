package utils

import (
	"fmt"

	"savora_back_end/internal/models"
)

// FormatEuros formate un montant en centimes en euros ("12,50€")
func FormatEuros(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d€", sign, cents/100, cents%100)
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(order models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%s</td>
				<td>%s</td>
			</tr>`, item.Name, item.Quantity, FormatEuros(item.UnitPrice),
			FormatEuros(item.UnitPrice*int64(item.Quantity)))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande</h2>
		<p>Bonjour %s,</p>
		<p>Votre commande a été confirmée avec succès.</p>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produit</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">%s</td>
				</tr>
			</tfoot>
		</table>

		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe Savora</strong>
		</p>
	</div>
</body>
</html>`, order.ShippingAddress.FullName, itemsHTML, FormatEuros(order.TotalAmount))
}

// GenerateStatusEmailHTML génère le HTML de notification de changement de statut
func GenerateStatusEmailHTML(order models.Order, status string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Mise à jour de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">%s Mise à jour de votre commande</h2>
		<p>%s</p>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0; background-color: #f8f9fa; border-radius: 8px;">
			<tr>
				<td style="padding: 10px; color: #666;">Numéro de commande:</td>
				<td style="padding: 10px; text-align: right;">#%s</td>
			</tr>
			<tr>
				<td style="padding: 10px; color: #666;">Montant total:</td>
				<td style="padding: 10px; text-align: right; font-weight: 600;">%s</td>
			</tr>
			<tr>
				<td style="padding: 10px; color: #666;">Statut:</td>
				<td style="padding: 10px; text-align: right; font-weight: 600;">%s</td>
			</tr>
		</table>
		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe Savora</strong>
		</p>
	</div>
</body>
</html>`, statusIcon(status), statusMessage(status), order.ID, FormatEuros(order.TotalAmount), status)
}

// GeneratePaymentErrorHTML génère le HTML d'échec de paiement
func GeneratePaymentErrorHTML(order models.Order) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Échec de paiement</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #c0392b;">⚠️ Votre paiement n'a pas abouti</h2>
		<p>Le paiement de votre commande #%s (%s) a été refusé par votre banque
		ou la passerelle de paiement. Aucun montant n'a été débité.</p>
		<p>Vous pouvez retenter le paiement depuis votre espace client.</p>
		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe Savora</strong>
		</p>
	</div>
</body>
</html>`, order.ID, FormatEuros(order.TotalAmount))
}

// GenerateReturnEmailHTML génère le HTML des notifications de retour
func GenerateReturnEmailHTML(ret models.Return, status string) string {
	extra := ""
	if status == models.ReturnDeclined && ret.AdminNotes != "" {
		extra = fmt.Sprintf(`<p style="color: #666;">Motif: %s</p>`, ret.AdminNotes)
	}
	if status == models.ReturnApproved && ret.RefundAmount > 0 {
		extra = fmt.Sprintf(`<p style="color: #666;">Montant du remboursement prévu: %s</p>`, FormatEuros(ret.RefundAmount))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Votre demande de retour</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Votre demande de retour</h2>
		<p>%s</p>
		%s
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0; background-color: #f8f9fa;">
			<tr>
				<td style="padding: 10px; color: #666;">Retour:</td>
				<td style="padding: 10px; text-align: right;">#%s</td>
			</tr>
			<tr>
				<td style="padding: 10px; color: #666;">Commande:</td>
				<td style="padding: 10px; text-align: right;">#%s</td>
			</tr>
		</table>
		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe Savora</strong>
		</p>
	</div>
</body>
</html>`, returnStatusMessage(status), extra, ret.ID, ret.OrderID)
}

func statusIcon(status string) string {
	switch status {
	case models.PaymentPaid:
		return "💳"
	case models.OrderShipped:
		return "📦"
	case models.OrderDelivered:
		return "🎉"
	case models.OrderCancelled:
		return "❌"
	default:
		return "📋"
	}
}

func statusMessage(status string) string {
	switch status {
	case models.PaymentPaid:
		return "Votre paiement a bien été reçu. Nous préparons votre commande."
	case models.OrderShipped:
		return "Bonne nouvelle ! Votre commande a été expédiée et arrive bientôt."
	case models.OrderDelivered:
		return "Votre commande a été livrée. Bon appétit !"
	case models.OrderCancelled:
		return "Votre commande a été annulée. Si vous n'êtes pas à l'origine de cette annulation, contactez notre support."
	default:
		return "Le statut de votre commande a été mis à jour."
	}
}

func returnStatusMessage(status string) string {
	switch status {
	case models.ReturnPending:
		return "Nous avons bien enregistré votre demande de retour. Notre équipe va l'examiner."
	case models.ReturnApproved:
		return "Votre demande de retour a été approuvée. Vous recevrez bientôt les instructions d'expédition."
	case models.ReturnDeclined:
		return "Votre demande de retour a été refusée."
	case models.ReturnReceived:
		return "Nous avons bien reçu votre colis retourné. Le remboursement sera traité prochainement."
	default:
		return "Le statut de votre retour a été mis à jour."
	}
}
