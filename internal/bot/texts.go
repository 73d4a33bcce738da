package bot

// BannerDescriptions - описания информационных страниц.
// Подставляются в БД при первом запуске; картинки догружает админ.
var BannerDescriptions = map[string]string{
	"main": "Добро пожаловать! 👋\n" +
		"Здесь можно записаться на прием, посмотреть свои заявки или изменить их.",
	"about": "Мы - небольшой салон в центре города.\n" +
		"Работаем ежедневно с 09:00 до 20:00.\nЗапись через бота или по телефону.",
}
