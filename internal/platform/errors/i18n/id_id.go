package i18n

var idIDCatalog = &Catalog{
	locale: "id-ID",
	messages: map[Code]string{
		CodeTooManyImages:          "Properti hanya boleh memiliki paling banyak {{.Max}} gambar",
		CodeInvalidPropertyType:    "Kode tipe properti {{.Code}} tidak dikenal",
		CodeInvalidPropertyStatus:  "Kode status properti {{.Code}} tidak dikenal",
		CodeInvalidCertificateType: "Kode jenis sertifikat {{.Code}} tidak dikenal",
		CodeInsufficientPayment:    "Pembayaran {{.Paid}} kurang dari harga {{.Price}}",

		CodeInsufficientAmount:       "Jumlah kurang dari minimum {{.Required}}",
		CodeMessageTooLong:           "Pesan dibatasi {{.Max}} karakter",
		CodeProfileNotFound:          "Profil kreator untuk alamat ini tidak ditemukan",
		CodeCreatorInactive:          "Kreator ini sedang tidak menerima donasi",
		CodeCreatorAlreadyRegistered: "Profil kreator untuk alamat ini sudah ada",

		CodeUnauthorized:       "Anda tidak berhak melakukan operasi ini",
		CodeInvalidInput:       "Permintaan berisi nilai yang tidak valid",
		CodeInvalidAddress:     "Alamat tidak valid",
		CodeArithmeticOverflow: "Jumlah terlalu besar untuk dicatat",
		CodeInsufficientFunds:  "Saldo dompet tidak cukup untuk pembayaran ini",

		CodeNotFound:      "Data yang diminta tidak ditemukan",
		CodeAlreadyExists: "Data sudah ada",
	},
}
