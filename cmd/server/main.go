package main

import (
	"context"
	"log"
	"os"

	"savora_back_end/internal/config"
	"savora_back_end/internal/database"
	"savora_back_end/internal/routes"
	"savora_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
)

func main() {
	config.Load()

	// Stripe est optionnel: sans clé, la passerelle refusera proprement à la
	// création d'intent (503), le serveur démarre quand même
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		log.Println("⚠️ STRIPE_SECRET_KEY manquant — passerelle Stripe désactivée")
	} else {
		log.Println("✅ Stripe initialisé")
	}

	if os.Getenv("RAZORPAY_KEY_ID") == "" || os.Getenv("RAZORPAY_KEY_SECRET") == "" {
		log.Println("⚠️ Clés Razorpay manquantes — passerelle Razorpay désactivée")
	} else {
		log.Println("✅ Razorpay initialisé")
	}

	database.ConnectDatabases()
	defer database.CloseScylla()

	store.InitStores()

	// ✅ Pré-chauffer la connexion Redis pour éviter la latence du premier panier
	warmupRedisCache()

	r := gin.Default()
	routes.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Savora lancé sur le port", port)
	r.Run(":" + port)
}

// warmupRedisCache fait un ping pour établir la connexion
func warmupRedisCache() {
	ctx := context.Background()
	if err := database.Redis.Ping(ctx).Err(); err == nil {
		log.Println("✅ Cache Redis pré-chauffé")
	}
}
