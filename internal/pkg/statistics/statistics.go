package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/nordkorb/nordkorb/app/models"
	"github.com/nordkorb/nordkorb/internal/pkg/cache"
	"github.com/nordkorb/nordkorb/internal/pkg/database"
)

const (
	CacheKeyOrdersTotal = "statistics:orders:total"
	CacheKeyOrdersDaily = "statistics:orders:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyUsers       = "statistics:users:total"
	CacheKeyActivePlans = "statistics:plans:active"
	CacheExpiration     = 30 * time.Minute
)

// StatisticsData enthält die Kennzahlen für das Admin-Dashboard
type StatisticsData struct {
	TodayOrders int
	TotalOrders int
	TotalUsers  int
	ActivePlans int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache prüft, ob der Cache aktualisiert werden sollte
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded aktualisiert den Cache, wenn nötig
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Fehler beim Aktualisieren des Statistik-Caches: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer setzt den Timer für die Cache-Aktualisierung zurück
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalOrders int64
	if err := db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		log.Printf("Error counting total orders: %v", err)
		return err
	}
	if err := cache.Set(CacheKeyOrdersTotal, strconv.FormatInt(totalOrders, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total orders: %v", err)
	}

	today := time.Now().Format("2006-01-02")
	var todayOrders int64
	if err := db.Model(&models.Order{}).Where("DATE(created_at) = ?", today).Count(&todayOrders).Error; err != nil {
		log.Printf("Error counting today's orders: %v", err)
		return err
	}
	if err := cache.Set(fmt.Sprintf(CacheKeyOrdersDaily, today), strconv.FormatInt(todayOrders, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's orders: %v", err)
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}
	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total users: %v", err)
	}

	var activePlans int64
	if err := db.Model(&models.RecurringPlan{}).Where("status = ?", models.PlanStatusActive).Count(&activePlans).Error; err != nil {
		log.Printf("Error counting active plans: %v", err)
		return err
	}
	if err := cache.Set(CacheKeyActivePlans, strconv.FormatInt(activePlans, 10), CacheExpiration); err != nil {
		log.Printf("Error caching active plans: %v", err)
	}

	return nil
}

func cachedCount(key string, fallback func() (int64, error)) int {
	val, err := cache.Get(key)
	if err != nil {
		count, dbErr := fallback()
		if dbErr != nil {
			log.Printf("Error counting for %s: %v", key, dbErr)
			return 0
		}
		if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching %s: %v", key, err)
		}
		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return int(count)
}

// GetTotalOrders returns the cached order count
func GetTotalOrders() int {
	return cachedCount(CacheKeyOrdersTotal, func() (int64, error) {
		var count int64
		err := database.GetDB().Model(&models.Order{}).Count(&count).Error
		return count, err
	})
}

// GetTodayOrders returns the cached count of orders placed today
func GetTodayOrders() int {
	today := time.Now().Format("2006-01-02")
	return cachedCount(fmt.Sprintf(CacheKeyOrdersDaily, today), func() (int64, error) {
		var count int64
		err := database.GetDB().Model(&models.Order{}).Where("DATE(created_at) = ?", today).Count(&count).Error
		return count, err
	})
}

// GetTotalUsers returns the cached user count
func GetTotalUsers() int {
	return cachedCount(CacheKeyUsers, func() (int64, error) {
		var count int64
		err := database.GetDB().Model(&models.User{}).Count(&count).Error
		return count, err
	})
}

// GetActivePlans returns the cached count of active recurring plans
func GetActivePlans() int {
	return cachedCount(CacheKeyActivePlans, func() (int64, error) {
		var count int64
		err := database.GetDB().Model(&models.RecurringPlan{}).Where("status = ?", models.PlanStatusActive).Count(&count).Error
		return count, err
	})
}

// GetStatisticsData returns all statistics data as StatisticsData structure
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TodayOrders: GetTodayOrders(),
		TotalOrders: GetTotalOrders(),
		TotalUsers:  GetTotalUsers(),
		ActivePlans: GetActivePlans(),
	}
}
