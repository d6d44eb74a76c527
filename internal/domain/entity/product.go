package entity

import "time"

// Product référence produit (SKU) connue du moteur. Le catalogue complet
// (prix, images, attributs) vit ailleurs ; ici on ne garde que ce qu'il faut
// pour valider l'existence d'un produit avant d'y toucher le stock.
type Product struct {
	ID        string
	SKU       string
	Name      string
	CreatedAt time.Time
}
